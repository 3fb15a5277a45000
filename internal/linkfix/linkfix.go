package linkfix

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"horse.fit/smartlingzd/internal/locale"
	"horse.fit/smartlingzd/internal/zendesk"
)

var linkSelector = cascadia.MustCompile("a[href], img[src]")

var localizedImageName = regexp.MustCompile(`_` + regexp.QuoteMeta(locale.ZendeskSource) + `\.([A-Za-z0-9]+)$`)

// Report summarizes the rewrites done by Localize.
type Report struct {
	Anchors int
	Images  int
	// MissingImages lists image file names with no attachment in the target locale.
	MissingImages []string
}

// Localize points the links of an article body at the zendeskLocale versions:
// help center paths get their locale segment swapped, and images named
// "<name>_en-us.<ext>" are replaced by the "<name>_<locale>.<ext>" attachment
// when the article has one. The body is returned unchanged when nothing is rewritten.
func Localize(body, zendeskLocale string, attachments []zendesk.Attachment) (string, Report, error) {
	var report Report
	target := locale.NormalizeTag(zendeskLocale)
	if target == "" {
		return body, report, fmt.Errorf("invalid zendesk locale %q", zendeskLocale)
	}
	if strings.TrimSpace(body) == "" {
		return body, report, nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(body), container)
	if err != nil {
		return body, report, fmt.Errorf("parse article body: %w", err)
	}
	for _, node := range nodes {
		container.AppendChild(node)
	}

	byName := make(map[string]string, len(attachments))
	for _, attachment := range attachments {
		if _, exists := byName[attachment.FileName]; !exists {
			byName[attachment.FileName] = attachment.ContentURL
		}
	}

	changed := false
	for _, element := range linkSelector.MatchAll(container) {
		switch element.DataAtom {
		case atom.A:
			href := attr(element, "href")
			localized := localizeHref(href, target)
			if localized != href {
				setAttr(element, "href", localized)
				report.Anchors++
				changed = true
			}
		case atom.Img:
			src := attr(element, "src")
			name, ok := localizedImageFile(src, target)
			if !ok {
				continue
			}
			contentURL, found := byName[name]
			if !found {
				report.MissingImages = append(report.MissingImages, name)
				continue
			}
			setAttr(element, "src", contentURL)
			report.Images++
			changed = true
		}
	}
	if !changed {
		return body, report, nil
	}

	var out bytes.Buffer
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&out, child); err != nil {
			return body, report, fmt.Errorf("render article body: %w", err)
		}
	}
	return out.String(), report, nil
}

func localizeHref(href, target string) string {
	return strings.ReplaceAll(href, "/"+locale.ZendeskSource+"/", "/"+target+"/")
}

// localizedImageFile returns the target locale file name for an image whose
// name carries the source locale suffix.
func localizedImageFile(src, target string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", false
	}
	name := path.Base(parsed.Path)
	if !localizedImageName.MatchString(name) {
		return "", false
	}
	return localizedImageName.ReplaceAllString(name, "_"+target+".$1"), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}
