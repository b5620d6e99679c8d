package ui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jarv/justread/internal/home"
)

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAverageColor(t *testing.T) {
	half := image.NewRGBA(image.Rect(0, 0, 2, 1))
	half.Set(0, 0, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	tests := []struct {
		name    string
		img     image.Image
		want    lipgloss.Color
		wantErr error
	}{
		{"solid red", solidImage(color.RGBA{R: 255, A: 255}), "#ff0000", nil},
		{"transparent pixels ignored", half, "#0000ff", nil},
		{"blank", image.NewRGBA(image.Rect(0, 0, 2, 2)), "", errBlankIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := averageColor(tt.img)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("color = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSiteIcons(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(color.RGBA{G: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/good.png", func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	icons := newSiteIcons(srv.Client())

	tests := []struct {
		name    string
		url     string
		visible bool
	}{
		{"loads", srv.URL + "/good.png", true},
		{"not found stays hidden", srv.URL + "/missing.png", false},
		{"undecodable stays hidden", srv.URL + "/garbage.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := icons.request(tt.url)
			if cmd == nil {
				t.Fatal("first request should fetch")
			}
			if icons.render(tt.url, home.IconSmall) != "" {
				t.Error("icon rendered while loading")
			}
			icons.resolve(cmd().(IconLoadedMsg))

			rendered := icons.render(tt.url, home.IconLarge)
			if (rendered != "") != tt.visible {
				t.Errorf("rendered = %q, visible want %v", rendered, tt.visible)
			}
			if icons.request(tt.url) != nil {
				t.Error("icon fetched twice")
			}
		})
	}

	if requests != 1 {
		t.Errorf("good icon fetched %d times", requests)
	}
	if icons.request("") != nil {
		t.Error("empty url should not fetch")
	}
}

func TestLoadIconColor(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(color.RGBA{R: 255, G: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	got, err := loadIconColor(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != "#ffff00" {
		t.Errorf("color = %q", got)
	}
}
