package service

// RewardTier is one entry of the fixed voucher catalogue.
type RewardTier struct {
	Name        string
	PointsCost  int64
	DiscountYen int64
}

var RewardTiers = []RewardTier{
	{Name: "small", PointsCost: 100, DiscountYen: 120},
	{Name: "medium", PointsCost: 250, DiscountYen: 320},
	{Name: "large", PointsCost: 500, DiscountYen: 700},
}

func FindRewardTier(name string) (RewardTier, bool) {
	for _, t := range RewardTiers {
		if t.Name == name {
			return t, true
		}
	}
	return RewardTier{}, false
}

type Quote struct {
	SubtotalYen int64
	RewardYen   int64
	PointsUsed  int64
	PaidYen     int64
}

// PriceOrder applies the voucher first and then points, one point per yen.
// Each discount is capped at what is left to pay, so PaidYen is never negative.
func PriceOrder(unitYen int64, qty int, rewardYen, points int64) (Quote, error) {
	if qty <= 0 {
		return Quote{}, invalid("quantity must be positive")
	}
	if unitYen <= 0 {
		return Quote{}, invalid("price must be positive")
	}
	if rewardYen < 0 || points < 0 {
		return Quote{}, invalid("discounts must not be negative")
	}
	q := Quote{SubtotalYen: unitYen * int64(qty)}
	q.RewardYen = min(rewardYen, q.SubtotalYen)
	rest := q.SubtotalYen - q.RewardYen
	q.PointsUsed = min(points, rest)
	q.PaidYen = rest - q.PointsUsed
	return q, nil
}

// PointsEarned credits perHundred points for every full 100 yen paid.
func PointsEarned(paidYen, perHundred int64) int64 {
	if paidYen <= 0 || perHundred <= 0 {
		return 0
	}
	return paidYen / 100 * perHundred
}
