package ports

type Room struct {
	Channel string `json:"channel"`
	State   Tags   `json:"state"`
}

type RoomsPort interface {
	IsInChannel(channel string) bool
	GetChannelState(channel string) Tags
	ListChannels() []Room
	OnChange(fn func(channel string)) func()
}
