package bots

// DormantBot never trades. It fills an inert seat when botSelection
// restricts the roster to fewer distinct strategies than the room asked
// to spawn, so the remainder can still be given a participant and a
// portfolio without inventing fake trading behavior for it.
type DormantBot struct{ *Base }

func NewDormantBot(base *Base) *DormantBot { return &DormantBot{Base: base} }

func (d *DormantBot) MakeDecision(view MarketView) bool { return false }

func (d *DormantBot) ShouldCancelOrders(view MarketView) {}
