package notifications

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"twitchnotify/internal/app/ports"

	"github.com/google/uuid"
)

var dummyNames = []string{
	"PogChampion", "LurkerSupreme", "KappaKing", "NightOwl42", "ChatSpammer",
	"GiftGoblin", "SubHunter", "PixelPanda", "CheerLeader", "BackseatGamer",
}

var dummyMessages = []string{
	"Love the stream!",
	"Been here since day one",
	"Hype!",
	"Keep it up",
	"",
}

var (
	dummyTiers = []string{"Prime", "1000", "2000", "3000"}
	dummyBits  = []int{1, 100, 250, 500, 1000, 5000}
)

// SendDummy emits a random, well formed notification of kind for channel.
// KindAny picks the kind at random. Dummies skip gift coalescing.
func (c *Classifier) SendDummy(kind Kind, channel string) error {
	n, err := c.Dummy(kind, channel)
	if err != nil {
		return err
	}

	c.emit(n)
	return nil
}

func (c *Classifier) Dummy(kind Kind, channel string) (Notification, error) {
	if kind == KindAny {
		kind = Kinds[rand.IntN(len(Kinds))]
	}

	display := pick(dummyNames)
	n := Notification{
		Kind:        kind,
		Channel:     channel,
		ID:          uuid.NewString(),
		Login:       strings.ToLower(display),
		DisplayName: display,
		Timestamp:   c.now().UnixMilli(),
	}

	switch kind {
	case KindSub:
		n.Tier = pick(dummyTiers)
		n.SystemMsg = fmt.Sprintf("%s subscribed %s.", display, tierText(n.Tier))
	case KindResub:
		n.Tier = pick(dummyTiers)
		n.Months = 2 + rand.IntN(47)
		n.Msg = pick(dummyMessages)
		n.SystemMsg = fmt.Sprintf("%s subscribed %s. They've subscribed for %d months!", display, tierText(n.Tier), n.Months)
	case KindGiftSub:
		n.Tier = pick(dummyTiers[1:])
		n.Months = 1 + rand.IntN(12)
		n.SenderCount = 1 + rand.IntN(50)
		n.Recipient = dummyRecipient(display)
		n.SystemMsg = fmt.Sprintf("%s gifted a %s sub to %s!", display, tierText(n.Tier), n.Recipient.DisplayName)
	case KindMassGiftSub:
		n.Tier = pick(dummyTiers[1:])
		n.MassCount = 1 + rand.IntN(10)
		n.SenderCount = n.MassCount + rand.IntN(100)
		n.Recipients = make([]Recipient, 0, n.MassCount)
		for range n.MassCount {
			n.Recipients = append(n.Recipients, *dummyRecipient(display))
		}
		n.SystemMsg = fmt.Sprintf("%s is gifting %d %s Subs to %s's community!", display, n.MassCount, tierText(n.Tier), channel)
	case KindBits:
		n.Bits = pick(dummyBits)
		n.Msg = fmt.Sprintf("Cheer%d %s", n.Bits, pick(dummyMessages))
	default:
		return Notification{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	n.Tags = dummyTags(n)
	return n, nil
}

func dummyRecipient(not string) *Recipient {
	for {
		display := pick(dummyNames)
		if display != not {
			return &Recipient{Login: strings.ToLower(display), DisplayName: display}
		}
	}
}

func dummyTags(n Notification) ports.Tags {
	tags := ports.Tags{
		"id":           n.ID,
		"login":        n.Login,
		"display-name": n.DisplayName,
		"tmi-sent-ts":  strconv.FormatInt(n.Timestamp, 10),
	}
	if n.Kind == KindBits {
		tags["bits"] = strconv.Itoa(n.Bits)
		return tags
	}

	tags["msg-id"] = string(n.Kind)
	tags["msg-param-sub-plan"] = n.Tier
	if n.Kind == KindMassGiftSub {
		tags["msg-id"] = "submysterygift"
		tags["msg-param-mass-gift-count"] = strconv.Itoa(n.MassCount)
	}
	if n.Kind == KindGiftSub {
		tags["msg-id"] = "subgift"
		tags["msg-param-recipient-user-name"] = n.Recipient.Login
		tags["msg-param-recipient-display-name"] = n.Recipient.DisplayName
	}
	return tags
}

func tierText(tier string) string {
	switch tier {
	case "Prime":
		return "with Prime"
	case "2000":
		return "at Tier 2"
	case "3000":
		return "at Tier 3"
	}
	return "at Tier 1"
}

func pick[T any](from []T) T {
	return from[rand.IntN(len(from))]
}
