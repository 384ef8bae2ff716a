package helpers

import (
	"errors"
	"testing"
)

func TestTargetURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
		err  error
	}{
		{
			name: "defaults https",
			in:   "example.com/news/latest",
			want: "https://example.com/news/latest",
		},
		{
			name: "trims and lowercases host",
			in:   "  HTTP://News.Example.COM/Article?id=1  ",
			want: "http://news.example.com/Article?id=1",
		},
		{
			name: "handles schemeless url with double slash",
			in:   "//blog.example.com/post/42",
			want: "https://blog.example.com/post/42",
		},
		{
			name: "keeps query and fragment",
			in:   "https://boards.4chan.org/g/thread/1#p2",
			want: "https://boards.4chan.org/g/thread/1#p2",
		},
		{
			name: "host with port and no scheme",
			in:   "localhost:5000/page",
			want: "https://localhost:5000/page",
		},
		{
			name: "empty",
			in:   "   ",
			err:  ErrEmptyURL,
		},
		{
			name: "unsupported scheme",
			in:   "ftp://example.com/file",
			err:  ErrUnsupportedURL,
		},
		{
			name: "missing host",
			in:   "https:///path",
			err:  ErrMissingHost,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := TargetURL(tt.in)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("TargetURL(%q) err = %v, want %v", tt.in, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TargetURL(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("TargetURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHostOf(t *testing.T) {
	t.Parallel()
	if got := HostOf("Boards.4chan.org/g/"); got != "boards.4chan.org" {
		t.Fatalf("HostOf = %q", got)
	}
	if got := HostOf("%%%"); got != "" {
		t.Fatalf("HostOf(invalid) = %q", got)
	}
}
