/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/niklasfasching/go-org/org"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var newOrgConfig = org.New

var parseOrg = func(config *org.Configuration, reader io.Reader) *org.Document {
	return config.Parse(reader, "")
}

var writeOrg = func(doc *org.Document, writer *org.HTMLWriter) (string, error) {
	return doc.Write(writer)
}

// RulebaseLinkBase is where icd: links point.
const RulebaseLinkBase = "/view_rulebase"

// RenderOrg converts an org-mode document to HTML. Links of the form
// [[icd:E11][...]] resolve to the disease's entry in the rulebase view, and
// external links open in a new tab.
func RenderOrg(content string) (string, error) {
	config := newOrgConfig()

	config.ResolveLink = func(protocol string, description []org.Node, link string) org.Node {
		if protocol == "icd" {
			code := strings.TrimPrefix(link, "icd:")
			return org.RegularLink{
				Description: description,
				URL:         RulebaseLinkBase + "#" + url.PathEscape(code),
			}
		}

		return org.RegularLink{
			Protocol:    protocol,
			Description: description,
			URL:         link,
		}
	}

	doc := parseOrg(config, strings.NewReader(content))
	if doc.Error != nil {
		return "", fmt.Errorf("failed to parse org-mode content: %w", doc.Error)
	}

	writer := org.NewHTMLWriter()
	writer.HighlightCodeBlock = func(source, lang string, inline bool, params map[string]string) string {
		if inline {
			return `<code class="inline-code">` + html.EscapeString(source) + `</code>`
		}

		return `<pre><code class="code-block">` + html.EscapeString(source) + `</code></pre>`
	}

	rendered, err := writeOrg(doc, writer)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	annotated, err := annotateExternalLinks(rendered)
	if err != nil {
		return "", fmt.Errorf("failed to annotate external links: %w", err)
	}

	return annotated, nil
}

func annotateExternalLinks(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return body, nil
	}

	container := &nethtml.Node{Type: nethtml.ElementNode, Data: "div", DataAtom: atom.Div}

	nodes, err := nethtml.ParseFragment(strings.NewReader(body), container)
	if err != nil {
		return "", err
	}

	for _, node := range nodes {
		container.AppendChild(node)
	}

	walkLinks(container)

	var buffer bytes.Buffer
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := nethtml.Render(&buffer, child); err != nil {
			return "", err
		}
	}

	return buffer.String(), nil
}

func walkLinks(node *nethtml.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.ElementNode && child.DataAtom == atom.A && isExternalLink(attr(child, "href")) {
			setAttr(child, "target", "_blank")
			setAttr(child, "rel", "noopener noreferrer")
		}

		walkLinks(child)
	}
}

func attr(node *nethtml.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func setAttr(node *nethtml.Node, key, val string) {
	for i := range node.Attr {
		if node.Attr[i].Key == key {
			node.Attr[i].Val = val
			return
		}
	}

	node.Attr = append(node.Attr, nethtml.Attribute{Key: key, Val: val})
}

func isExternalLink(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}

	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

var titleDirective = regexp.MustCompile(`(?im)^\s*#\+TITLE:\s+(.+)$`)

// ExtractTitle returns the #+TITLE: directive, or the first headline.
func ExtractTitle(content string) string {
	if matches := titleDirective.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	reHeadline := regexp.MustCompile(`(?m)^\*+\s+(.+)$`)
	if matches := reHeadline.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	return "Untitled"
}
