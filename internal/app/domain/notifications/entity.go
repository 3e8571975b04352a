package notifications

import (
	"errors"
	"time"
	"twitchnotify/internal/app/ports"
)

type Kind string

const (
	KindSub         Kind = "sub"
	KindResub       Kind = "resub"
	KindGiftSub     Kind = "giftsub"
	KindMassGiftSub Kind = "massgiftsub"
	KindBits        Kind = "bits"

	// KindAny is accepted by SendDummy and picks one of Kinds at random.
	KindAny Kind = "any"
)

var Kinds = []Kind{KindSub, KindResub, KindGiftSub, KindMassGiftSub, KindBits}

var ErrUnknownKind = errors.New("unknown notification kind")

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k == KindAny {
		return k, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

const (
	DefaultGiftWindow     = time.Second
	DefaultMassGiftWindow = 5 * time.Second
)

type Recipient struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Notification is a finalized event. Fields that do not apply to Kind stay zero.
type Notification struct {
	Kind        Kind   `json:"event"`
	Channel     string `json:"channel"`
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Timestamp   int64  `json:"timestamp"` // unix ms, tmi-sent-ts
	SystemMsg   string `json:"system_msg,omitempty"`
	Tier        string `json:"tier,omitempty"` // Prime, 1000, 2000, 3000
	Msg         string `json:"msg,omitempty"`
	Months      int    `json:"months,omitempty"`
	Bits        int    `json:"bits,omitempty"`

	Recipient   *Recipient  `json:"recipient,omitempty"`
	SenderCount int         `json:"sender_count,omitempty"`
	MassCount   int         `json:"mass_count,omitempty"`
	Recipients  []Recipient `json:"recipients,omitempty"`

	Tags ports.Tags `json:"-"`
}

// Text is the line shown for a notification: the system message when Twitch sent one.
func (n Notification) Text() string {
	if n.SystemMsg != "" {
		return n.SystemMsg
	}
	return n.Msg
}

func (n Notification) clone() Notification {
	out := n
	if n.Recipient != nil {
		r := *n.Recipient
		out.Recipient = &r
	}
	if n.Recipients != nil {
		out.Recipients = make([]Recipient, len(n.Recipients))
		copy(out.Recipients, n.Recipients)
	}
	out.Tags = n.Tags.Clone()
	return out
}
