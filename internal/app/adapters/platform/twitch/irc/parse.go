package irc

import (
	"errors"
	"strings"
	"twitchnotify/internal/app/ports"
)

var (
	ErrEmptyLine = errors.New("empty line")
	ErrNoCommand = errors.New("line has no command")
)

// parser walks a line left to right. Every stage consumes a prefix of rest.
type parser struct {
	msg       *ports.IRCMessage
	rest      string
	hasPrefix bool
}

type stage func(p *parser) bool

var stages = []stage{
	(*parser).tags,
	(*parser).prefix,
	(*parser).command,
	(*parser).middle,
	(*parser).trailing,
}

// Parse splits one trimmed IRC line into its parts. A malformed line still
// yields whatever could be read, together with the error.
func Parse(line string) (*ports.IRCMessage, error) {
	p := &parser{
		msg:  &ports.IRCMessage{Raw: line},
		rest: line,
	}

	if line == "" {
		return p.msg, ErrEmptyLine
	}

	for _, s := range stages {
		if !s(p) || p.rest == "" {
			break
		}
	}

	if p.msg.Command == "" {
		return p.msg, ErrNoCommand
	}

	return p.msg, nil
}

func (p *parser) tags() bool {
	if p.rest[0] == ':' {
		p.hasPrefix = true
		p.rest = p.rest[1:]
		return true
	}
	if p.rest[0] != '@' {
		return true
	}

	end := strings.Index(p.rest, " :")
	if end == -1 {
		end = strings.IndexByte(p.rest, ' ')
	}
	if end == -1 {
		p.msg.Tags = parseTags(p.rest[1:])
		p.rest = ""
		return false
	}

	p.msg.Tags = parseTags(p.rest[1:end])
	p.rest = p.rest[end+1:]
	return true
}

func parseTags(raw string) ports.Tags {
	tags := make(ports.Tags)

	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ';' {
			tag := raw[start:i]
			if tag != "" {
				if eq := strings.IndexByte(tag, '='); eq != -1 {
					tags[tag[:eq]] = tag[eq+1:]
				} else {
					tags[tag] = ""
				}
			}
			start = i + 1
		}
	}

	return tags
}

func (p *parser) prefix() bool {
	if p.rest[0] == ':' {
		p.hasPrefix = true
		p.rest = p.rest[1:]
	}
	if !p.hasPrefix {
		return true
	}

	end := strings.IndexByte(p.rest, ' ')
	if end == -1 {
		p.msg.Prefix = p.rest
		p.rest = ""
		return false
	}

	p.msg.Prefix = p.rest[:end]
	p.rest = p.rest[end+1:]
	return true
}

func (p *parser) command() bool {
	end := strings.IndexByte(p.rest, ' ')
	if end == -1 {
		p.msg.Command = p.rest
		p.rest = ""
		return false
	}

	p.msg.Command = p.rest[:end]
	p.rest = p.rest[end+1:]
	return true
}

func (p *parser) middle() bool {
	extra := p.rest
	end := strings.Index(p.rest, " :")
	if end == -1 {
		p.rest = ""
	} else {
		extra = p.rest[:end]
		p.rest = p.rest[end+1:]
	}

	// A bare ":" right after the command is the trailing part with no middle params.
	if strings.HasPrefix(extra, ":") {
		p.rest = extra
		if end != -1 {
			p.rest = extra + " " + p.rest
		}
		return true
	}

	for _, param := range strings.Split(extra, " ") {
		if param == "" {
			continue
		}
		p.msg.Params = append(p.msg.Params, param)
		if param[0] == '#' {
			p.msg.Channel = param[1:]
		}
	}

	return end != -1
}

func (p *parser) trailing() bool {
	p.msg.Trailing = strings.TrimSpace(strings.TrimPrefix(p.rest, ":"))
	p.rest = ""
	return false
}
