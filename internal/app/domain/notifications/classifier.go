package notifications

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/emitter"
	"twitchnotify/pkg/logger"

	"github.com/google/uuid"
)

type Options struct {
	// GiftWindow is how long a single gift waits for its mass gift, and how
	// long an open mass gift waits after its latest gift.
	GiftWindow time.Duration
	// MassGiftWindow is the deadline of a mass gift counted from its announcement.
	MassGiftWindow time.Duration
}

func DefaultOptions() Options {
	return Options{
		GiftWindow:     DefaultGiftWindow,
		MassGiftWindow: DefaultMassGiftWindow,
	}
}

// giftKey correlates single gifts with a mass gift announcement.
type giftKey struct {
	login   string
	channel string
	tier    string
}

type pendingGift struct {
	seq     uint64
	key     giftKey
	n       Notification
	timerID string
}

type pendingMass struct {
	seq     uint64
	key     giftKey
	n       Notification
	timerID string
}

// Classifier turns USERNOTICE and cheer messages into notifications. Gifts
// are held back briefly so the ones belonging to a mass gift are reported as
// one massgiftsub, whatever order Twitch delivers them in.
type Classifier struct {
	log    logger.Logger
	timers ports.TimersPort
	opts   Options
	now    func() time.Time

	mu    sync.Mutex
	seq   uint64
	gifts map[giftKey][]*pendingGift
	mass  map[giftKey][]*pendingMass

	any   *emitter.Emitter[Notification]
	kinds map[Kind]*emitter.Emitter[Notification]

	unsubscribe []func()
}

func New(log logger.Logger, src ports.NotificationSource, timers ports.TimersPort, opts Options) *Classifier {
	if opts.GiftWindow <= 0 {
		opts.GiftWindow = DefaultGiftWindow
	}
	if opts.MassGiftWindow <= 0 {
		opts.MassGiftWindow = DefaultMassGiftWindow
	}

	c := &Classifier{
		log:    log,
		timers: timers,
		opts:   opts,
		now:    time.Now,
		gifts:  make(map[giftKey][]*pendingGift),
		mass:   make(map[giftKey][]*pendingMass),
		any:    emitter.New[Notification](),
		kinds:  make(map[Kind]*emitter.Emitter[Notification], len(Kinds)),
	}
	for _, k := range Kinds {
		c.kinds[k] = emitter.New[Notification]()
	}

	if src != nil {
		c.unsubscribe = []func(){
			src.OnUserNotice(c.handleUserNotice),
			src.OnMessage(c.handleMessage),
		}
	}

	return c
}

// Close detaches the classifier from its source. Pending gifts stay pending.
func (c *Classifier) Close() {
	for _, off := range c.unsubscribe {
		off()
	}
}

// OnAny receives every notification, before the kind specific handlers.
func (c *Classifier) OnAny(fn func(Notification)) func() {
	return c.any.On(fn)
}

func (c *Classifier) On(kind Kind, fn func(Notification)) func() {
	em, ok := c.kinds[kind]
	if !ok {
		return func() {}
	}
	return em.On(fn)
}

// Pending reports how many single gifts and mass gifts are waiting.
func (c *Classifier) Pending() (gifts, massGifts int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, list := range c.gifts {
		gifts += len(list)
	}
	for _, list := range c.mass {
		massGifts += len(list)
	}
	return gifts, massGifts
}

// Flush finalizes everything pending right away, in arrival order.
func (c *Classifier) Flush() {
	type flushed struct {
		seq uint64
		n   Notification
	}

	c.mu.Lock()
	var out []flushed
	for _, list := range c.gifts {
		for _, g := range list {
			c.timers.RemoveTimer(g.timerID)
			out = append(out, flushed{g.seq, g.n})
		}
	}
	for _, list := range c.mass {
		for _, m := range list {
			c.timers.RemoveTimer(m.timerID)
			out = append(out, flushed{m.seq, m.n})
		}
	}
	c.gifts = make(map[giftKey][]*pendingGift)
	c.mass = make(map[giftKey][]*pendingMass)
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b flushed) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	if len(out) > 0 {
		c.log.Info("Flushed pending gifts", slog.Int("count", len(out)))
	}
	for _, f := range out {
		c.emit(f.n)
	}
}

func (c *Classifier) handleUserNotice(ev ports.UserNoticeEvent) {
	n := c.base(ev.Channel, ev.Login, ev.Tags)
	n.SystemMsg = ev.Tags.Text("system-msg")

	switch msgID := ev.Tags.Get("msg-id"); msgID {
	case "sub":
		n.Kind = KindSub
		n.Tier = ev.Tags.Get("msg-param-sub-plan")
		c.emit(n)
	case "resub":
		n.Kind = KindResub
		n.Msg = ev.Text
		n.Months = ev.Tags.Int("msg-param-cumulative-months")
		n.Tier = ev.Tags.Get("msg-param-sub-plan")
		c.emit(n)
	case "subgift", "anonsubgift":
		n.Kind = KindGiftSub
		n.Msg = ev.Text
		n.Months = ev.Tags.Int("msg-param-months")
		n.SenderCount = ev.Tags.Int("msg-param-sender-count")
		n.Tier = ev.Tags.Get("msg-param-sub-plan")
		n.Recipient = &Recipient{
			Login:       ev.Tags.Get("msg-param-recipient-user-name"),
			DisplayName: ev.Tags.Get("msg-param-recipient-display-name"),
		}
		c.addGift(n)
	case "submysterygift", "anonsubmysterygift":
		n.Kind = KindMassGiftSub
		n.MassCount = ev.Tags.Int("msg-param-mass-gift-count")
		n.SenderCount = ev.Tags.Int("msg-param-sender-count")
		n.Tier = ev.Tags.Get("msg-param-sub-plan")
		n.Recipients = []Recipient{}
		c.addMassGift(n)
	default:
		c.log.Trace("Ignored user notice", slog.String("msg_id", msgID), slog.String("channel", ev.Channel))
	}
}

func (c *Classifier) handleMessage(ev ports.ChatMessageEvent) {
	if v, ok := ev.Tags.Lookup("bits"); !ok || v == "" {
		return
	}

	n := c.base(ev.Channel, ev.Login, ev.Tags)
	n.Kind = KindBits
	n.Msg = ev.Text
	n.Bits = ev.Tags.Int("bits")
	c.emit(n)
}

func (c *Classifier) base(channel, login string, tags ports.Tags) Notification {
	if login == "" {
		login = tags.Get("login")
	}

	ts, err := strconv.ParseInt(tags.Get("tmi-sent-ts"), 10, 64)
	if err != nil {
		ts = c.now().UnixMilli()
	}

	return Notification{
		Channel:     channel,
		ID:          tags.Get("id"),
		Login:       login,
		DisplayName: tags.Text("display-name"),
		Timestamp:   ts,
		Tags:        tags,
	}
}

func keyOf(n Notification) giftKey {
	return giftKey{login: n.Login, channel: n.Channel, tier: n.Tier}
}

// addGift absorbs a gift into an open mass gift with the same key or parks it.
func (c *Classifier) addGift(n Notification) {
	key := keyOf(n)

	c.mu.Lock()
	var done []Notification
	if m := c.openMassLocked(key); m != nil {
		m.n.Recipients = append(m.n.Recipients, *n.Recipient)
		if len(m.n.Recipients) >= m.n.MassCount {
			done = append(done, c.finishMassLocked(m))
		} else {
			c.rescheduleMassLocked(m, c.opts.GiftWindow)
		}
	} else {
		c.seq++
		g := &pendingGift{seq: c.seq, key: key, n: n}
		c.gifts[key] = append(c.gifts[key], g)
		c.scheduleGiftLocked(g)
	}
	c.mu.Unlock()

	c.emit(done...)
}

// addMassGift opens a mass gift, taking over parked gifts with the same key.
func (c *Classifier) addMassGift(n Notification) {
	key := keyOf(n)

	c.mu.Lock()
	c.seq++
	m := &pendingMass{seq: c.seq, key: key, n: n}

	parked := c.gifts[key]
	taken := 0
	for _, g := range parked {
		if len(m.n.Recipients) >= m.n.MassCount {
			break
		}
		m.n.Recipients = append(m.n.Recipients, *g.n.Recipient)
		c.timers.RemoveTimer(g.timerID)
		g.timerID = ""
		taken++
	}
	if taken == len(parked) {
		delete(c.gifts, key)
	} else {
		c.gifts[key] = parked[taken:]
	}

	var done []Notification
	if len(m.n.Recipients) >= m.n.MassCount {
		done = append(done, m.n)
	} else {
		c.mass[key] = append(c.mass[key], m)
		c.rescheduleMassLocked(m, c.opts.MassGiftWindow)
	}
	c.mu.Unlock()

	if taken > 0 {
		c.log.Debug("Mass gift took parked gifts", slog.String("channel", n.Channel), slog.Int("count", taken))
	}
	c.emit(done...)
}

func (c *Classifier) openMassLocked(key giftKey) *pendingMass {
	for _, m := range c.mass[key] {
		if len(m.n.Recipients) < m.n.MassCount {
			return m
		}
	}
	return nil
}

func (c *Classifier) scheduleGiftLocked(g *pendingGift) {
	id := uuid.NewString()
	g.timerID = id
	c.timers.AddTimer(id, c.opts.GiftWindow, func() { c.expireGift(g, id) })
}

// rescheduleMassLocked restarts the deadline of m. A timer that already left
// the scheduler is replaced by a fresh one; its pending fire is then ignored.
func (c *Classifier) rescheduleMassLocked(m *pendingMass, d time.Duration) {
	if m.timerID != "" && c.timers.UpdateTimer(m.timerID, d) {
		return
	}

	id := uuid.NewString()
	m.timerID = id
	c.timers.AddTimer(id, d, func() { c.expireMass(m, id) })
}

func (c *Classifier) finishMassLocked(m *pendingMass) Notification {
	c.timers.RemoveTimer(m.timerID)
	m.timerID = ""
	c.removeMassLocked(m)
	return m.n
}

func (c *Classifier) expireGift(g *pendingGift, id string) {
	c.mu.Lock()
	if g.timerID != id || !c.removeGiftLocked(g) {
		c.mu.Unlock()
		return
	}
	g.timerID = ""
	n := g.n
	c.mu.Unlock()

	c.emit(n)
}

func (c *Classifier) expireMass(m *pendingMass, id string) {
	c.mu.Lock()
	if m.timerID != id || !c.removeMassLocked(m) {
		c.mu.Unlock()
		return
	}
	m.timerID = ""
	n := m.n
	c.mu.Unlock()

	if len(n.Recipients) < n.MassCount {
		c.log.Debug("Mass gift closed incomplete",
			slog.String("channel", n.Channel),
			slog.Int("expected", n.MassCount),
			slog.Int("got", len(n.Recipients)),
		)
	}
	c.emit(n)
}

func (c *Classifier) removeGiftLocked(g *pendingGift) bool {
	list := c.gifts[g.key]
	i := slices.Index(list, g)
	if i == -1 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(c.gifts, g.key)
	} else {
		c.gifts[g.key] = list
	}
	return true
}

func (c *Classifier) removeMassLocked(m *pendingMass) bool {
	list := c.mass[m.key]
	i := slices.Index(list, m)
	if i == -1 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(c.mass, m.key)
	} else {
		c.mass[m.key] = list
	}
	return true
}

// emit delivers each notification to the any handlers first, then to its kind.
func (c *Classifier) emit(ns ...Notification) {
	for _, n := range ns {
		c.log.Debug("Notification",
			slog.String("event", string(n.Kind)),
			slog.String("channel", n.Channel),
			slog.String("login", n.Login),
		)

		c.any.Emit(n.clone())
		if em, ok := c.kinds[n.Kind]; ok {
			em.Emit(n.clone())
		}
	}
}
