package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/poesaver"
)

// ExtractMetadata collects page-level facts from the document: its title and
// description, every bot name announced in the visible text, and whether the
// page presents itself as a shared conversation.
func (p *Parser) ExtractMetadata(doc *goquery.Document) poesaver.Metadata {
	return p.metadata(doc, VisibleText(doc.Selection))
}

// metadata yields empty metadata when extraction fails.
func (p *Parser) metadata(doc *goquery.Document, text string) (md poesaver.Metadata) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("metadata extraction failed", "err", r)
			md = poesaver.Metadata{}
		}
	}()

	if title := doc.Find("title").First(); title.Length() > 0 {
		md.PageTitle = strings.TrimSpace(title.Text())
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		md.Description = strings.TrimSpace(desc)
	}
	md.MentionedBots = BotMentions(text)
	md.IsSharedConversation = strings.Contains(text, sharedConversationMarker)
	return md
}
