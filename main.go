package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songmesh/internal/command"
	"songmesh/internal/config"
	"songmesh/internal/server"
	"songmesh/internal/utils"
)

func main() {
	var basePath string
	flag.StringVar(&basePath, "prefix", "", "Config file base path")
	flag.Parse()

	// Load MainConfig
	cfg, err := config.LoadMainConfig(basePath)
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	logger := utils.NewNodeLogger(cfg.LogPath)
	defer func() {
		_ = logger.Sync()
	}()

	selfAddr := server.AdvertiseAddr(cfg.Port)
	events := make(chan server.Event, 64)
	transport := server.NewHTTPTransport(cfg, logger, events, selfAddr)
	node := server.NewNode(cfg, logger, transport, events)

	log.Printf("Node %s ready on %s", cfg.NodeName, selfAddr)

	node.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- transport.ListenAndServe()
	}()

	transport.JoinAll()

	var disc *server.Discovery
	if cfg.Discovery.Enabled {
		disc, err = server.NewDiscovery(cfg, logger, selfAddr, transport.Discovered)
		if err != nil {
			log.Printf("Auto-discovery unavailable: %v", err)
			log.Printf("Continuing with statically configured peers only")
		} else {
			disc.Start()
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{}, 1)
	go runCLI(node, quit, os.Stdin)

	select {
	case <-stop:
		log.Println("Stopping node...")
	case <-quit:
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start transport: %v", err)
		}
	}

	if disc != nil {
		disc.Stop()
	}
	transport.NotifyLeave()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := transport.Shutdown(ctx); err != nil {
		log.Printf("Transport shutdown: %v", err)
	}

	node.Stop()
	log.Println("Node stopped")
}

func runCLI(node *server.Node, quit chan<- struct{}, in io.Reader) {
	fmt.Println("Commands: create song t|a|l|e, publish song <id>, privatize song <id>, delete song <id>, list songs [all|<peer>], list peers, say <text>, quit")

	scanner := bufio.NewScanner(in)
	fmt.Print("> ")

	for scanner.Scan() {
		line := scanner.Text()
		cmd, err := command.Parse(line)
		if err != nil {
			fmt.Println(err)
			fmt.Print("> ")
			continue
		}
		if cmd.Kind == command.Quit {
			quit <- struct{}{}
			return
		}
		execute(node, cmd)
		fmt.Print("> ")
	}

	// Input closed without a quit command (detached run). The node keeps
	// gossiping; SIGINT/SIGTERM handle shutdown.
	log.Println("Interactive input closed, continuing headless")
}

func execute(node *server.Node, cmd command.Command) {
	switch cmd.Kind {
	case command.CreateSong:
		song := node.CreateSong(cmd.Title, cmd.Artist, cmd.Lyrics, cmd.Explicit)
		fmt.Printf("Created song %d: %s - %s\n", song.ID, song.Title, song.Artist)

	case command.PublishSong:
		if err := node.PublishSong(cmd.ID); err != nil {
			fmt.Printf("publish song %d: %v\n", cmd.ID, err)
			return
		}
		fmt.Printf("Published song %d\n", cmd.ID)

	case command.PrivatizeSong:
		if err := node.PrivatizeSong(cmd.ID); err != nil {
			fmt.Printf("privatize song %d: %v\n", cmd.ID, err)
			return
		}
		fmt.Printf("Privatized song %d\n", cmd.ID)

	case command.DeleteSong:
		if err := node.DeleteSong(cmd.ID); err != nil {
			fmt.Printf("delete song %d: %v\n", cmd.ID, err)
			return
		}
		fmt.Printf("Deleted song %d\n", cmd.ID)

	case command.ListLocalSongs:
		songs := node.LocalSongs()
		fmt.Printf("Local songs (%d):\n", len(songs))
		for _, s := range songs {
			fmt.Printf("  %d. %s - %s [%s, explicit=%t] %s\n",
				s.ID, s.Title, s.Artist, s.Visibility, s.Explicit, truncateLyrics(s.Lyrics))
		}

	case command.ListAllRemoteSongs:
		peers := node.RemotePeers()
		if len(peers) == 0 {
			fmt.Println("No remote catalogs received yet")
			return
		}
		for _, peer := range peers {
			printRemote(node, peer)
		}

	case command.ListPeerSongs:
		printRemote(node, cmd.Peer)

	case command.ListPeers:
		peers := node.Peers()
		fmt.Printf("Discovered peers (%d):\n", len(peers))
		for _, p := range peers {
			fmt.Printf("  - %s (last seen %s)\n", p.ID, p.LastSeen.Format(time.RFC3339))
		}

	case command.Say:
		node.SendChat(cmd.Text)
	}
}

func printRemote(node *server.Node, peer string) {
	songs := node.RemoteSongs(peer)
	fmt.Printf("Songs from %s (%d):\n", peer, len(songs))
	for i, s := range songs {
		fmt.Printf("  %d. %s - %s [explicit=%t] %s\n",
			i+1, s.Title, s.Artist, s.Explicit, truncateLyrics(s.Lyrics))
	}
}

// truncateLyrics cuts on rune boundaries so multibyte lyrics stay valid UTF-8.
func truncateLyrics(lyrics string) string {
	const max = 40
	runes := []rune(lyrics)
	if len(runes) <= max {
		return lyrics
	}
	return string(runes[:max]) + "..."
}
