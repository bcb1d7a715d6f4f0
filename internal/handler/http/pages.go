package http

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/shield"
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// adaptiveHeadlines are the texts shown for adaptive content variants.
var adaptiveHeadlines = []string{
	"You are being redirected",
	"Almost there",
	"Taking you to your destination",
	"One moment please",
}

const interstitialTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex,nofollow">
{{- if not .Obfuscate}}
<meta http-equiv="refresh" content="{{.Seconds}};url={{.Destination}}">
{{- end}}
<title>{{.Title}}</title>
</head>
<body>
<main>
<h1>{{.Headline}}</h1>
{{- if gt .TimerMs 0}}
<p>Redirecting in <span id="countdown">{{.Seconds}}</span> seconds...</p>
{{- end}}
{{- if not .Obfuscate}}
<p><a href="{{.Destination}}" rel="noopener noreferrer">Continue</a></p>
{{- end}}
</main>
<script>
(function () {
  var left = {{.Seconds}};
  var el = document.getElementById("countdown");
  var tick = setInterval(function () {
    left = left > 0 ? left - 1 : 0;
    if (el) { el.textContent = left; }
  }, 1000);
  setTimeout(function () {
    clearInterval(tick);
    window.location.replace({{if .Obfuscate}}atob({{.Encoded}}){{else}}{{.Destination}}{{end}});
  }, {{.TimerMs}});
})();
</script>
</body>
</html>`

const multiLinkTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
{{- if .Description}}
<section class="description">{{.Description}}</section>
{{- end}}
<ul class="links">
{{- range .Links}}
<li><a href="{{.Href}}" rel="noopener">{{.Title}}</a>{{if .Description}}<p>{{.Description}}</p>{{end}}</li>
{{- end}}
</ul>
</main>
</body>
</html>`

type interstitialData struct {
	Title       string
	Headline    string
	Destination string
	Encoded     string
	Obfuscate   bool
	TimerMs     int
	Seconds     int
}

type pageLink struct {
	Title       string
	Href        string
	Description string
}

type multiLinkData struct {
	Title       string
	Description template.HTML
	Links       []pageLink
}

// Pages renders the public HTML pages: shield interstitials and multi-link pages.
type Pages struct {
	interstitial *template.Template
	multiLink    *template.Template
	markdown     goldmark.Markdown
}

// NewPages parses the page templates.
func NewPages() *Pages {
	return &Pages{
		interstitial: template.Must(template.New("interstitial").Parse(interstitialTemplate)),
		multiLink:    template.Must(template.New("multilink").Parse(multiLinkTemplate)),
		// Raw HTML in descriptions is dropped by the default renderer
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// RenderInterstitial writes the page for Delay, AdaptiveContent and obfuscated
// PassThrough decisions.
func (p *Pages) RenderInterstitial(w http.ResponseWriter, link *domain.Link, d shield.Decision) error {
	data := interstitialData{
		Title:     link.Title,
		Headline:  adaptiveHeadlines[0],
		Obfuscate: d.Obfuscate,
		TimerMs:   d.TimerMs,
		Seconds:   (d.TimerMs + 999) / 1000,
	}
	if d.VariantID != nil {
		data.Headline = adaptiveHeadlines[*d.VariantID%len(adaptiveHeadlines)]
	}
	if d.Obfuscate {
		data.Encoded = base64.StdEncoding.EncodeToString([]byte(d.DestinationURL))
	} else {
		data.Destination = d.DestinationURL
	}

	var buf bytes.Buffer
	if err := p.interstitial.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render interstitial: %w", err)
	}
	writeHTML(w, buf.Bytes(), http.StatusOK)
	return nil
}

// RenderMultiLink writes the public page of a multi-link.
func (p *Pages) RenderMultiLink(w http.ResponseWriter, link *domain.Link) error {
	data := multiLinkData{Title: link.Title}
	if link.Description != nil && *link.Description != "" {
		var md bytes.Buffer
		if err := p.markdown.Convert([]byte(*link.Description), &md); err != nil {
			return fmt.Errorf("failed to render description: %w", err)
		}
		data.Description = template.HTML(md.String())
	}
	for _, sl := range link.SubLinks {
		pl := pageLink{
			Title: sl.Title,
			Href:  fmt.Sprintf("/go/%s/%d", link.Slug, sl.ID),
		}
		if sl.Description != nil {
			pl.Description = *sl.Description
		}
		data.Links = append(data.Links, pl)
	}

	var buf bytes.Buffer
	if err := p.multiLink.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	writeHTML(w, buf.Bytes(), http.StatusOK)
	return nil
}

func writeHTML(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
