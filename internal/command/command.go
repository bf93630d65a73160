package command

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota // 0：Unparseable input
	CreateSong
	PublishSong
	PrivatizeSong
	DeleteSong
	ListLocalSongs
	ListAllRemoteSongs
	ListPeerSongs
	ListPeers
	Say
	Quit
)

// Command is the closed set of operations the interactive interface can
// request from a node. Free text never reaches the core; it is parsed into
// exactly one of these variants first.
type Command struct {
	Kind     Kind
	Title    string
	Artist   string
	Lyrics   string
	Explicit bool
	ID       uint64
	Peer     string
	Text     string
}

// Parse turns one input line into a Command.
//
// Recognized forms:
//
//	create song <title>|<artist>|<lyrics>|<explicit>
//	publish song <id>
//	privatize song <id>
//	delete song <id>
//	list songs            (local records)
//	list songs all        (every remote snapshot)
//	list songs <peer>     (one peer's snapshot)
//	list peers
//	say <text>
//	quit
func Parse(line string) (Command, error) {
	input := strings.TrimSpace(line)

	switch {
	case input == "":
		return Command{}, fmt.Errorf("empty command")

	case input == "quit":
		return Command{Kind: Quit}, nil

	case input == "list peers":
		return Command{Kind: ListPeers}, nil

	case input == "list songs":
		return Command{Kind: ListLocalSongs}, nil

	case strings.HasPrefix(input, "list songs "):
		rest := strings.TrimSpace(strings.TrimPrefix(input, "list songs "))
		if rest == "all" {
			return Command{Kind: ListAllRemoteSongs}, nil
		}
		return Command{Kind: ListPeerSongs, Peer: rest}, nil

	case strings.HasPrefix(input, "create song "):
		return parseCreate(strings.TrimPrefix(input, "create song "))

	case strings.HasPrefix(input, "publish song "):
		return parseID(PublishSong, strings.TrimPrefix(input, "publish song "))

	case strings.HasPrefix(input, "privatize song "):
		return parseID(PrivatizeSong, strings.TrimPrefix(input, "privatize song "))

	case strings.HasPrefix(input, "delete song "):
		return parseID(DeleteSong, strings.TrimPrefix(input, "delete song "))

	case strings.HasPrefix(input, "say "):
		text := strings.TrimSpace(strings.TrimPrefix(input, "say "))
		if text == "" {
			return Command{}, fmt.Errorf("say: empty message")
		}
		return Command{Kind: Say, Text: text}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %q", input)
	}
}

func parseCreate(rest string) (Command, error) {
	elements := strings.Split(rest, "|")
	if len(elements) < 4 {
		return Command{}, fmt.Errorf("too few arguments - Format: title|artist|lyrics|explicit")
	}
	explicit, err := strconv.ParseBool(strings.TrimSpace(elements[3]))
	if err != nil {
		return Command{}, fmt.Errorf("invalid explicit flag %q: %w", elements[3], err)
	}
	return Command{
		Kind:     CreateSong,
		Title:    strings.TrimSpace(elements[0]),
		Artist:   strings.TrimSpace(elements[1]),
		Lyrics:   strings.TrimSpace(elements[2]),
		Explicit: explicit,
	}, nil
}

func parseID(kind Kind, rest string) (Command, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		return Command{}, fmt.Errorf("invalid id: %q", strings.TrimSpace(rest))
	}
	return Command{Kind: kind, ID: id}, nil
}
