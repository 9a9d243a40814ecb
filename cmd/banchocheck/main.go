package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/park285/bancho-mp-bot/internal/bancho"
	"github.com/park285/bancho-mp-bot/internal/irc"
	"github.com/park285/bancho-mp-bot/internal/obslog"
)

func main() {
	host := pflag.String("host", bancho.DefaultHost, "Bancho IRC host")
	port := pflag.Int("port", bancho.DefaultPort, "Bancho IRC port")
	channel := pflag.String("join", "", "channel to join after login")
	watch := pflag.Duration("watch", 10*time.Second, "how long to print traffic after login")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	username := os.Getenv("BANCHO_USERNAME")
	password := os.Getenv("BANCHO_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("BANCHO_USERNAME and BANCHO_PASSWORD are required")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, err := obslog.Init(obslog.Options{Level: level, Format: "console", Console: true})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}

	client := bancho.NewClient(bancho.Config{Host: *host, Port: *port}, bancho.WithLogger(logger))
	defer client.Close()

	client.Events.Message.Subscribe(func(msg irc.Message) {
		fmt.Printf("%s %q\n", msg.Type, msg.Args)
	})
	client.Events.PrivateMessage.Subscribe(func(ch bancho.Chat) {
		fmt.Printf("PM from=%s text=%q\n", ch.From, ch.Text)
	})
	client.Events.Multiplayer.Subscribe(func(ch bancho.Chat) {
		fmt.Printf("MP %s from=%s text=%q\n", ch.Channel.Name(), ch.From, ch.Text)
	})
	client.Events.Disconnected.Subscribe(func(err error) {
		logger.Warn("disconnected", zap.Error(err))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := client.Login(ctx, bancho.Credentials{Username: username, Password: password}); err != nil {
		log.Fatalf("login error: %v", err)
	}
	log.Printf("login ok: nick=%s state=%s", client.Nick(), client.State())

	if *channel != "" {
		jctx, jcancel := context.WithTimeout(context.Background(), 10*time.Second)
		l, err := client.JoinWait(jctx, *channel)
		jcancel()
		if err != nil {
			log.Printf("join %s error: %v", *channel, err)
		} else {
			log.Printf("joined %s multiplayer=%v", l.Name(), l.IsMultiplayer())
		}
	}

	// Observe for a short window
	t := time.NewTimer(*watch)
	<-t.C
}
