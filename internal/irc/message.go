package irc

import "strings"

// Numeric replies consumed from Bancho.
const (
	RplWelcome        = "001"
	RplTopic          = "332"
	RplTopicWhoTime   = "333"
	RplNamReply       = "353"
	RplEndOfNames     = "366"
	ErrNoSuchNick     = "401"
	ErrNoSuchChannel  = "403"
	ErrPasswdMismatch = "464"
)

// Commands this client reads or writes.
const (
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdJoin    = "JOIN"
	CmdPart    = "PART"
	CmdQuit    = "QUIT"
	CmdPrivmsg = "PRIVMSG"
)

// Message is one decoded protocol line.
//
//	source               type    args
//	cho.ppy.sh           001     [tawan475, Welcome to the osu!Bancho.]
//	tawan475!cho@ppy.sh  PRIVMSG [#mp_98953873, a]
//	cho.ppy.sh           333     [tawan475, #mp_98953873, BanchoBot!BanchoBot@cho.ppy.sh, 1647835975]
//
// Source is empty when the line carries no origin prefix. The last argument
// holds the whole trailing parameter, spaces included. Raw keeps the line as
// received for consumers that need to re-slice it.
type Message struct {
	Source string
	Type   string
	Args   []string
	Raw    string
}

// Parse decodes one line. It never fails; malformed input yields a Message
// with whatever fields could be recovered.
func Parse(line string) Message {
	msg := Message{Raw: line}
	rest := line

	if strings.HasPrefix(rest, ":") {
		src, tail, _ := strings.Cut(rest[1:], " ")
		msg.Source = src
		rest = tail
	}
	rest = strings.TrimLeft(rest, " ")

	typ, tail, _ := strings.Cut(rest, " ")
	msg.Type = strings.ToUpper(typ)
	rest = tail

	for rest != "" {
		if strings.HasPrefix(rest, ":") {
			msg.Args = append(msg.Args, rest[1:])
			break
		}
		arg, tail, found := strings.Cut(rest, " ")
		if arg != "" {
			msg.Args = append(msg.Args, arg)
		}
		if !found {
			break
		}
		rest = tail
	}
	return msg
}

// Nick is the nickname part of Source ("nick!user@host" -> "nick").
func (m Message) Nick() string {
	if i := strings.IndexByte(m.Source, '!'); i >= 0 {
		return m.Source[:i]
	}
	return m.Source
}

// Arg returns the i-th argument or "".
func (m Message) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	return m.Args[i]
}

// Trailing returns the last argument, the free text of PRIVMSG and most
// numerics.
func (m Message) Trailing() string {
	if len(m.Args) == 0 {
		return ""
	}
	return m.Args[len(m.Args)-1]
}

// IsNumeric reports whether Type is a three digit reply code.
func (m Message) IsNumeric() bool {
	if len(m.Type) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if m.Type[i] < '0' || m.Type[i] > '9' {
			return false
		}
	}
	return true
}

// PingToken reports whether line is a bare keep-alive probe and returns the
// token text to echo back.
func PingToken(line string) (string, bool) {
	if strings.HasPrefix(line, ":") {
		return "", false
	}
	if line == CmdPing {
		return "", true
	}
	token, ok := strings.CutPrefix(line, CmdPing+" ")
	return token, ok
}
