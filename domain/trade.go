package domain

// Fill represents one match between an incoming (taker) order and a resting
// (maker) order. The book emits one Fill per matching step, in matching order.
type Fill struct {
	Seq      uint64 // book-local, strictly increasing
	Price    int64  // execution price, always the maker's resting price
	Quantity int64

	MakerOrderID uint64
	TakerOrderID uint64
	TakerSide    Side

	// MakerRemaining is what is left of the maker after this fill; zero means
	// the maker left the book.
	MakerRemaining int64
	// TakerRemaining is what is left of the taker after this fill.
	TakerRemaining int64
}

// BidOrderID returns the id of the buying order of the fill
func (f Fill) BidOrderID() uint64 {
	if f.TakerSide == SideBid {
		return f.TakerOrderID
	}
	return f.MakerOrderID
}

// AskOrderID returns the id of the selling order of the fill
func (f Fill) AskOrderID() uint64 {
	if f.TakerSide == SideAsk {
		return f.TakerOrderID
	}
	return f.MakerOrderID
}

// MakerFilled reports whether the fill consumed the resting order completely
func (f Fill) MakerFilled() bool {
	return f.MakerRemaining == 0
}
