package notifications

import "twitchnotify/internal/app/infrastructure/config"

// Allowed reports whether n passes the user's display filters.
func Allowed(f config.Filters, n Notification) bool {
	switch n.Kind {
	case KindBits:
		return f.ShowBits && n.Bits >= f.MinBits
	case KindSub:
		return f.ShowNewsubs
	case KindResub:
		return f.ShowResubs
	case KindGiftSub, KindMassGiftSub:
		return f.ShowGiftsubs
	}
	return false
}
