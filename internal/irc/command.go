package irc

import "strings"

// Pass, User and Nick form the login handshake, sent back to back.
func Pass(password string) string { return "PASS " + password }

func User(username string) string { return "USER " + username + " 0 * :" + username }

func Nick(username string) string { return "NICK " + username }

func Pong(token string) string {
	if token == "" {
		return CmdPong
	}
	return CmdPong + " " + token
}

// Join and Part accept names with or without the leading '#'.
func Join(channel string) string { return CmdJoin + " " + ChannelName(channel) }

func Part(channel string) string { return CmdPart + " " + ChannelName(channel) }

func Privmsg(target, text string) string { return CmdPrivmsg + " " + target + " :" + text }

// ChannelName adds the '#' prefix when missing.
func ChannelName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "#") {
		return name
	}
	return "#" + name
}
