package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookingfeed/internal/command"
	"bookingfeed/internal/config"
	"bookingfeed/internal/domain"
	"bookingfeed/internal/feed"
	"bookingfeed/internal/simulator"
	"bookingfeed/internal/transport"
)

func main() {
	cfg := config.Load()

	// Use the configured token, or mint a local one against the
	// simulator's dev secret.
	token := cfg.Command.Token
	if token == "" {
		minted, err := simulator.DevToken(cfg.Simulator.JWTSecret, "feedwatch", time.Hour)
		if err != nil {
			log.Fatalf("failed to mint dev token: %v", err)
		}
		token = minted
	}

	channel := transport.NewWSChannel(cfg.Feed.URL, log.Default())
	commander := command.NewClient(cfg.Command.BaseURL, command.StaticToken(token), cfg.Command.Timeout)

	feedSync := feed.NewSync(feed.Options{
		Channel:           channel,
		Commander:         commander,
		ReconnectAttempts: cfg.Feed.ReconnectAttempts,
		ReconnectDelay:    cfg.Feed.ReconnectDelay,
	})

	feedSync.Subscribe(func(u feed.Update) {
		if u.Err != nil {
			log.Printf("connection: %s (%v)", u.State, u.Err)
			return
		}
		if u.Bookings == nil {
			log.Printf("connection: %s", u.State)
			return
		}
		printFeed(u.Bookings)
	})

	if err := feedSync.Start(context.Background()); err != nil {
		log.Printf("start failed: %v (type 'r' to retry)", err)
	}

	// Booking IDs typed on stdin are accepted; "r" reconnects.
	go readCommands(feedSync)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	feedSync.Stop()
	log.Println("feedwatch exited")
}

func readCommands(feedSync *feed.Sync) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "r" {
			if err := feedSync.Reconnect(context.Background()); err != nil {
				log.Printf("reconnect failed: %v", err)
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		result, err := feedSync.Accept(ctx, line)
		cancel()
		if err != nil {
			log.Printf("accept %s: %v", line, err)
			continue
		}
		if result.Booking != nil {
			log.Printf("accepted %s (status %s)", result.Booking.ID, result.Booking.Status)
		} else {
			log.Printf("accepted %s", line)
		}
	}
}

func printFeed(bookings []domain.Booking) {
	fmt.Printf("---- feed (%d) ----\n", len(bookings))
	for _, b := range bookings {
		address := ""
		if b.Pickup != nil {
			address = b.Pickup.Address
		}
		fmt.Printf("%-36s  %-10s  %8.2f  %s  %s\n",
			b.ID, b.Status, b.Fare, b.CreatedAt.Format(time.RFC3339), address)
	}
}
