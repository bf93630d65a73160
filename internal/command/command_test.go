package command

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{"quit", Command{Kind: Quit}, false},
		{"list peers", Command{Kind: ListPeers}, false},
		{"list songs", Command{Kind: ListLocalSongs}, false},
		{"list songs all", Command{Kind: ListAllRemoteSongs}, false},
		{"list songs node-b", Command{Kind: ListPeerSongs, Peer: "node-b"}, false},
		{
			"create song Do Not Touch|Misamo|some lyrics|false",
			Command{Kind: CreateSong, Title: "Do Not Touch", Artist: "Misamo", Lyrics: "some lyrics", Explicit: false},
			false,
		},
		{
			"create song T|A|L|true",
			Command{Kind: CreateSong, Title: "T", Artist: "A", Lyrics: "L", Explicit: true},
			false,
		},
		{"publish song 3", Command{Kind: PublishSong, ID: 3}, false},
		{"privatize song 12", Command{Kind: PrivatizeSong, ID: 12}, false},
		{"delete song 7", Command{Kind: DeleteSong, ID: 7}, false},
		{"say hello mesh", Command{Kind: Say, Text: "hello mesh"}, false},
		{"  publish song 3  ", Command{Kind: PublishSong, ID: 3}, false},

		{"", Command{}, true},
		{"frobnicate", Command{}, true},
		{"create song only|two", Command{}, true},
		{"create song t|a|l|maybe", Command{}, true},
		{"publish song abc", Command{}, true},
		{"publish song -1", Command{}, true},
		{"say ", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %+v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
