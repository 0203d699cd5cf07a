package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/feed"
	"github.com/milhonews/milho/internal/types"
)

// Builder renders loaded pages as HTML and text
type Builder struct {
	siteTitle    string
	defaultTheme string
	template     *template.Template
}

// New creates a new digest builder
func New(siteTitle, defaultTheme string) (*Builder, error) {
	tmpl, err := template.New("digest").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{
		siteTitle:    siteTitle,
		defaultTheme: ResolveTheme(defaultTheme, config.ThemeLight),
		template:     tmpl,
	}, nil
}

// Digest represents a rendered page
type Digest struct {
	HTMLBody  string
	PlainBody string
	CreatedAt time.Time
}

// DigestData is the template data structure
type DigestData struct {
	SiteTitle  string
	Title      string
	Theme      string
	ToggleURL  string
	ToggleName string
	Action     string
	Query      string
	Nav        []NavItem
	Topics     []types.Topic
	Posts      []PostData
	Stats      StatsData
}

// NavItem is one section link in the header
type NavItem struct {
	Title  string
	URL    string
	Active bool
}

// PostData represents a post in the digest template
type PostData struct {
	ID         string
	AuthorName string
	Handle     string
	AvatarURL  string
	Initials   string
	Content    string
	CreatedAt  string
	Likes      uint
	Reposts    uint
	Replies    uint
	URL        string
	ProfileURL string
	SearchText string
	Hidden     bool
	Featured   bool
}

// StatsData contains page statistics
type StatsData struct {
	Shown int
	Total int
}

// ResolveTheme returns requested when it names a theme, fallback otherwise
func ResolveTheme(requested, fallback string) string {
	switch requested {
	case config.ThemeLight, config.ThemeDark:
		return requested
	}
	return fallback
}

// SectionURL is the site path serving a section
func SectionURL(name string) string {
	return "/" + name
}

// Build renders page. Every post is emitted so the browser can search live;
// posts not matching page.Query start hidden and the first match is featured.
func (b *Builder) Build(page *app.Page, sections []types.Section, theme string) (*Digest, error) {
	data := b.data(page, sections, ResolveTheme(theme, b.defaultTheme))

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Digest{
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		CreatedAt: time.Now(),
	}, nil
}

func (b *Builder) data(page *app.Page, sections []types.Section, theme string) DigestData {
	data := DigestData{
		SiteTitle: b.siteTitle,
		Title:     page.Section.Title,
		Theme:     theme,
		Action:    SectionURL(page.Section.Name),
		Query:     page.Query,
		Topics:    page.Topics,
		Posts:     make([]PostData, 0, len(page.All)),
		Stats: StatsData{
			Shown: len(page.Posts),
			Total: page.Total,
		},
	}

	other := config.ThemeDark
	if theme == config.ThemeDark {
		other = config.ThemeLight
	}
	data.ToggleName = other
	data.ToggleURL = pageURL(page.Section.Name, page.Query, other)

	for _, s := range sections {
		data.Nav = append(data.Nav, NavItem{
			Title:  s.Title,
			URL:    pageURL(s.Name, "", theme),
			Active: s.Name == page.Section.Name,
		})
	}

	featured := false
	for _, p := range page.All {
		match := feed.Matches(page.Query, p)
		pd := postData(p)
		pd.Hidden = !match
		if match && !featured {
			pd.Featured = true
			featured = true
		}
		data.Posts = append(data.Posts, pd)
	}

	return data
}

func postData(p types.Post) PostData {
	name := p.AuthorDisplayName
	if name == "" {
		name = p.AuthorHandle
	}

	var created string
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.Format("02/01/2006 15:04")
	}

	return PostData{
		ID:         p.ID,
		AuthorName: name,
		Handle:     p.AuthorHandle,
		AvatarURL:  p.AuthorAvatarURL,
		Initials:   initials(name),
		Content:    p.Text,
		CreatedAt:  created,
		Likes:      p.LikeCount,
		Reposts:    p.RepostCount,
		Replies:    p.ReplyCount,
		URL:        p.URL(),
		ProfileURL: p.ProfileURL(),
		SearchText: feed.SearchText(p),
	}
}

func pageURL(section, query, theme string) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if theme != "" {
		v.Set("theme", theme)
	}
	if len(v) == 0 {
		return SectionURL(section)
	}
	return SectionURL(section) + "?" + v.Encode()
}

func initials(name string) string {
	name = strings.TrimLeft(name, "@ ")
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func buildPlainText(data DigestData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s - %s\n\n", data.SiteTitle, data.Title))

	for _, t := range data.Topics {
		buf.WriteString(fmt.Sprintf("## %s\n%s\n\n", t.Title, t.Content))
	}

	i := 0
	for _, p := range data.Posts {
		if p.Hidden {
			continue
		}
		i++
		buf.WriteString(fmt.Sprintf("%d. %s (@%s): %s\n", i, p.AuthorName, p.Handle, oneLine(p.Content)))
		buf.WriteString(fmt.Sprintf("   %s\n\n", p.URL))
	}

	buf.WriteString(fmt.Sprintf("Showing %d of %d posts\n", data.Stats.Shown, data.Stats.Total))
	return buf.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const defaultTemplate = `<!DOCTYPE html>
<html lang="pt-BR" data-theme="{{.Theme}}">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} · {{.SiteTitle}}</title>
    <style>
        :root { --bg: #ffffff; --fg: #1f2937; --muted: #6b7280; --border: #e5e7eb; --accent: #ca8a04; }
        [data-theme="dark"] { --bg: #0f172a; --fg: #f3f4f6; --muted: #9ca3af; --border: #1f2937; --accent: #facc15; }
        body { font-family: Georgia, 'Times New Roman', serif; margin: 0; background: var(--bg); color: var(--fg); }
        header { position: sticky; top: 0; background: var(--bg); border-bottom: 1px solid var(--border); padding: 12px 16px; display: flex; gap: 16px; align-items: center; flex-wrap: wrap; }
        header .brand { font-size: 1.6rem; font-weight: bold; color: var(--fg); text-decoration: none; }
        nav a { color: var(--fg); margin-right: 12px; text-decoration: none; }
        nav a.active { color: var(--accent); }
        form.search { margin-left: auto; }
        form.search input { padding: 6px 10px; border: 1px solid var(--border); border-radius: 16px; background: var(--bg); color: var(--fg); }
        .toggle { color: var(--muted); text-decoration: none; }
        main { max-width: 1100px; margin: 0 auto; padding: 16px; display: grid; grid-template-columns: 2fr 1fr; gap: 24px; }
        @media (max-width: 720px) { main { grid-template-columns: 1fr; } }
        .post { border: 1px solid var(--border); border-radius: 8px; padding: 14px; margin-bottom: 16px; }
        .post.featured { border-color: var(--accent); }
        .post.featured .content { font-size: 1.15rem; }
        .author { display: flex; gap: 10px; align-items: center; }
        .avatar { width: 40px; height: 40px; border-radius: 50%; background: var(--border); display: flex; align-items: center; justify-content: center; overflow: hidden; }
        .avatar img { width: 100%; height: 100%; }
        .handle, .date, .metrics { color: var(--muted); font-size: 0.85rem; }
        .content { margin: 10px 0; line-height: 1.45; white-space: pre-wrap; }
        .link { color: var(--accent); text-decoration: none; font-size: 0.85rem; }
        .topic h3 { margin-bottom: 4px; }
        .topic p { color: var(--muted); font-size: 0.9rem; line-height: 1.5; }
        footer { border-top: 1px solid var(--border); color: var(--muted); font-size: 0.8rem; text-align: center; padding: 16px; }
    </style>
</head>
<body>
    <header>
        <a class="brand" href="/">{{.SiteTitle}}</a>
        <nav>
            {{range .Nav}}<a href="{{.URL}}"{{if .Active}} class="active"{{end}}>{{.Title}}</a>{{end}}
        </nav>
        <form class="search" method="get" action="{{.Action}}">
            <input id="search" type="search" name="q" value="{{.Query}}" placeholder="Pesquisar..." autocomplete="off">
            <input type="hidden" name="theme" value="{{.Theme}}">
        </form>
        <a class="toggle" href="{{.ToggleURL}}">{{.ToggleName}}</a>
    </header>

    <main>
        <section id="posts">
            {{range .Posts}}
            <article class="post{{if .Featured}} featured{{end}}" data-id="{{.ID}}" data-search="{{.SearchText}}"{{if .Hidden}} hidden{{end}}>
                <div class="author">
                    <a class="avatar" href="{{.ProfileURL}}">{{if .AvatarURL}}<img src="{{.AvatarURL}}" alt="{{.AuthorName}}">{{else}}{{.Initials}}{{end}}</a>
                    <div>
                        <a href="{{.ProfileURL}}"><strong>{{.AuthorName}}</strong></a>
                        <span class="handle">@{{.Handle}}</span>
                        {{if .CreatedAt}}<div class="date">{{.CreatedAt}}</div>{{end}}
                    </div>
                </div>
                <div class="content">{{.Content}}</div>
                <div class="metrics">{{.Replies}} respostas · {{.Reposts}} reposts · {{.Likes}} curtidas</div>
                <a href="{{.URL}}" class="link">Ver no Bluesky →</a>
            </article>
            {{end}}
            <p id="no-results"{{if .Stats.Shown}} hidden{{end}}>Nenhum post encontrado.</p>
        </section>

        {{if .Topics}}
        <aside id="summary">
            <h2>Resumo</h2>
            {{range .Topics}}
            <div class="topic">
                <h3>{{.Title}}</h3>
                <p>{{.Content}}</p>
            </div>
            {{end}}
        </aside>
        {{end}}
    </main>

    <footer>
        Mostrando <span id="shown">{{.Stats.Shown}}</span> de {{.Stats.Total}} posts · {{.SiteTitle}}
    </footer>

    <script>
    (function () {
        var input = document.getElementById('search');
        if (!input) { return; }
        var posts = Array.prototype.slice.call(document.querySelectorAll('#posts [data-search]'));
        var texts = posts.map(function (p) { return p.getAttribute('data-search').toLowerCase(); });
        var empty = document.getElementById('no-results');
        var shown = document.getElementById('shown');
        function apply() {
            var q = input.value.toLowerCase();
            var n = 0;
            posts.forEach(function (p, i) {
                var match = q === '' || texts[i].indexOf(q) !== -1;
                p.hidden = !match;
                p.classList.toggle('featured', match && n === 0);
                if (match) { n++; }
            });
            empty.hidden = n !== 0;
            shown.textContent = n;
        }
        input.addEventListener('input', apply);
        if (input.value !== '') { apply(); }
    })();
    </script>
</body>
</html>`
