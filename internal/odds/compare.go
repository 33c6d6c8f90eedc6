package odds

// payoutRank maps a valid American price onto a scale that is monotonic in
// payout and collapses the (-100, 100) gap: -100 and +100 both rank 0.
func payoutRank(a AmericanOdds) int {
	if a > 0 {
		return int(a) - 100
	}
	return int(a) + 100
}

// Better reports whether a pays strictly more than b.
// Underdogs: the larger positive price wins. Favorites: the price closest to
// zero wins. Any underdog price beats any favorite price. Invalid prices never
// win and always lose to a valid one.
func Better(a, b AmericanOdds) bool {
	if !a.Valid() {
		return false
	}
	if !b.Valid() {
		return true
	}
	return payoutRank(a) > payoutRank(b)
}

// Best returns the index of the best valid price, or -1 if none is valid.
// Ties go to the earliest price so the result follows input order.
func Best(prices []AmericanOdds) int {
	best := -1
	for i, p := range prices {
		if !p.Valid() {
			continue
		}
		if best < 0 || Better(p, prices[best]) {
			best = i
		}
	}
	return best
}
