// Package messages holds the localized texts shown to users: finding
// messages, fix titles, code lens titles and the optimization tips.
package messages

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a message in the catalog.
type Key string

const (
	ScriptHead      Key = "finding.script.head"
	ScriptEarlyBody Key = "finding.script.early-body"
	DivCount        Key = "finding.div.count"
	DivNesting      Key = "finding.div.nesting"
	NestingOrigin   Key = "finding.div.nesting-origin"

	FixAddDefer    Key = "fix.add-defer"
	FixAddAsync    Key = "fix.add-async"
	FixConvertGrid Key = "fix.convert-grid"
	FixConvertFlex Key = "fix.convert-flex"

	LensScriptInfo  Key = "lens.script-info"
	LensDivAnalysis Key = "lens.div-analysis"

	ScriptInfoTitle Key = "info.script.title"
	ScriptTipDefer  Key = "info.script.defer"
	ScriptTipAsync  Key = "info.script.async"
	ScriptTipEnd    Key = "info.script.end-of-body"
	DOMInfoTitle    Key = "info.dom.title"
	DOMTipRemove    Key = "info.dom.remove"
	DOMTipLayout    Key = "info.dom.layout"
	DOMTipSemantic  Key = "info.dom.semantic"
	LearnMore       Key = "info.learn-more"
)

// External references opened by the "learn more" action.
const (
	ScriptInfoURL = "https://web.dev/optimizing-content-efficiency-loading-third-party-javascript/"
	DOMInfoURL    = "https://web.dev/dom-size/"
)

var korean = language.Korean

var entries = map[Key]map[language.Tag]string{
	ScriptHead: {
		language.English: "Scripts in the head tag can block HTML parsing. Consider using the defer or async attribute.",
		korean:           "head 태그 내의 스크립트는 HTML 파싱을 차단할 수 있습니다. defer나 async 속성 사용을 고려해보세요.",
	},
	ScriptEarlyBody: {
		language.English: "Scripts early in the body tag can delay rendering. Consider adding the defer or async attribute, or moving the script to the end of the body.",
		korean:           "body 태그 초반의 스크립트는 렌더링을 지연시킬 수 있습니다. defer나 async 속성을 추가하거나 body 끝으로 이동을 고려해보세요.",
	},
	DivCount: {
		language.English: "The body contains %d div elements. Check for unnecessary divs.",
		korean:           "body에 div 태그가 %d개 있습니다. 불필요한 div가 있는지 확인하세요.",
	},
	DivNesting: {
		language.English: "div tags are nested too deeply. Consider using CSS Grid or Flexbox.",
		korean:           "div 태그가 너무 많이 중첩되어 있습니다. CSS Grid나 Flexbox 사용을 고려해보세요.",
	},
	NestingOrigin: {
		language.English: "the nesting starts at this div",
		korean:           "중첩이 이 div에서 시작됩니다",
	},
	FixAddDefer: {
		language.English: "Add defer attribute",
		korean:           "defer 속성 추가",
	},
	FixAddAsync: {
		language.English: "Add async attribute",
		korean:           "async 속성 추가",
	},
	FixConvertGrid: {
		language.English: "Convert to Grid layout",
		korean:           "Grid 레이아웃으로 변환",
	},
	FixConvertFlex: {
		language.English: "Convert to Flexbox layout",
		korean:           "Flexbox 레이아웃으로 변환",
	},
	LensScriptInfo: {
		language.English: "📝 Show script optimization tips",
		korean:           "📝 스크립트 최적화 방법 보기",
	},
	LensDivAnalysis: {
		language.English: "Check for unnecessary divs",
		korean:           "불필요한 div가 있는지 확인하세요",
	},
	ScriptInfoTitle: {
		language.English: "script optimization tips",
		korean:           "스크립트 최적화 방법",
	},
	ScriptTipDefer: {
		language.English: "Use the defer attribute",
		korean:           "defer 속성 사용",
	},
	ScriptTipAsync: {
		language.English: "Use the async attribute",
		korean:           "async 속성 사용",
	},
	ScriptTipEnd: {
		language.English: "Place scripts at the end of the body tag",
		korean:           "body 태그 끝에 배치",
	},
	DOMInfoTitle: {
		language.English: "DOM optimization tips",
		korean:           "DOM 최적화 방법",
	},
	DOMTipRemove: {
		language.English: "Remove unnecessary divs",
		korean:           "불필요한 div 제거",
	},
	DOMTipLayout: {
		language.English: "Use CSS Grid/Flexbox",
		korean:           "CSS Grid/Flexbox 사용",
	},
	DOMTipSemantic: {
		language.English: "Use semantic tags (section, article, nav, ...)",
		korean:           "시맨틱 태그 활용 (section, article, nav 등)",
	},
	LearnMore: {
		language.English: "Learn more",
		korean:           "자세히 알아보기",
	},
}

var (
	supported = []language.Tag{language.English, korean}
	matcher   = language.NewMatcher(supported)
	cat       = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, byLang := range entries {
		for tag, text := range byLang {
			if err := b.SetString(tag, string(key), text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Supported lists the locales with a full catalog.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Printer renders catalog messages for one locale.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a printer for the closest supported locale. An empty
// or unparsable locale selects English.
func NewPrinter(locale string) *Printer {
	tag := language.English
	if locale = strings.TrimSpace(locale); locale != "" {
		if want, err := language.Parse(locale); err == nil {
			_, idx, conf := matcher.Match(want)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Default is the English printer.
func Default() *Printer {
	return NewPrinter("")
}

// Language returns the selected locale.
func (p *Printer) Language() language.Tag {
	if p == nil {
		return language.English
	}
	return p.tag
}

func (p *Printer) Sprintf(key Key, args ...any) string {
	if p == nil {
		p = Default()
	}
	return p.p.Sprintf(string(key), args...)
}

// Title renders key in title case for headings.
func (p *Printer) Title(key Key) string {
	return cases.Title(p.Language(), cases.NoLower).String(p.Sprintf(key))
}

// Info is an informational dialog: a title, numbered tips and a link.
type Info struct {
	Title     string
	Tips      []string
	LearnMore string
	URL       string
}

// Text renders the dialog body the way editors show it.
func (i Info) Text() string {
	var b strings.Builder
	b.WriteString(i.Title)
	b.WriteString(":")
	for n, tip := range i.Tips {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(n + 1))
		b.WriteString(". ")
		b.WriteString(tip)
	}
	return b.String()
}

// ScriptInfo returns the script optimization tips.
func (p *Printer) ScriptInfo() Info {
	return Info{
		Title:     p.Title(ScriptInfoTitle),
		Tips:      []string{p.Sprintf(ScriptTipDefer), p.Sprintf(ScriptTipAsync), p.Sprintf(ScriptTipEnd)},
		LearnMore: p.Sprintf(LearnMore),
		URL:       ScriptInfoURL,
	}
}

// DOMInfo returns the DOM optimization tips.
func (p *Printer) DOMInfo() Info {
	return Info{
		Title:     p.Title(DOMInfoTitle),
		Tips:      []string{p.Sprintf(DOMTipRemove), p.Sprintf(DOMTipLayout), p.Sprintf(DOMTipSemantic)},
		LearnMore: p.Sprintf(LearnMore),
		URL:       DOMInfoURL,
	}
}
