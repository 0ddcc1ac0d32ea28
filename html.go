/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/ladders/game"
)

//go:embed assets/*
var assets embed.FS

func statusPage(cfg *Config, snap game.Snapshot) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	b.WriteString(getFavicon(cfg))
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/ladders.css">`, cfg.prefix))
	b.WriteString(fmt.Sprintf("<title>ladders v%s</title></head><body>", releaseVersion))

	b.WriteString("<h1>Snakes &amp; Ladders</h1>")
	b.WriteString(fmt.Sprintf(`<img class="qr" alt="Scan to join" src="%s/qr/join">`, cfg.prefix))

	b.WriteString(fmt.Sprintf("<h2>Lobby (%d waiting)</h2><ul>", len(snap.Lobby)))
	for _, p := range snap.Lobby {
		b.WriteString("<li>" + html.EscapeString(p.Name) + "</li>")
	}
	b.WriteString("</ul>")

	b.WriteString(fmt.Sprintf("<h2>Games (%d running)</h2>", len(snap.Games)))
	for _, g := range snap.Games {
		b.WriteString(fmt.Sprintf("<table><caption>%s, started %s</caption>",
			html.EscapeString(g.ID), g.StartTime.Format(time.Kitchen)))
		b.WriteString("<tr><th>Player</th><th>Tile</th><th>State</th></tr>")
		for _, p := range g.Players {
			b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%s</td></tr>",
				html.EscapeString(p.Name), p.Position, p.State))
		}
		b.WriteString("</table>")
		if g.Winner != nil {
			b.WriteString("<p>Winner: " + html.EscapeString(g.Winner.Name) + "</p>")
		}
	}

	admin := "free"
	if snap.HasAdmin {
		admin = "taken"
	}
	b.WriteString(fmt.Sprintf("<footer>%d connected, admin slot %s</footer>", snap.Clients, admin))
	b.WriteString("</body></html>")

	return b.String()
}

func serveHomePage(cfg *Config, hub *game.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		snap, err := hub.State(r.Context())
		if err != nil {
			http.Error(w, "game server unavailable", http.StatusServiceUnavailable)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(statusPage(cfg, snap)))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Home page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		ext := strings.ToLower(filepath.Ext(fname))
		switch ext {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

func registerHome(cfg *Config, path string, hub *game.Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(path, serveHomePage(cfg, hub, errs))
	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))
}
