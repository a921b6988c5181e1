// File: internal/i18n/catalog.go
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	InvalidRegexWithError     = "InvalidRegexWithError"
	DetailsFromPoints         = "DateSelector_Build_Failed_Details_From_Points"
	ExtractYearMonth          = "DateSelector_Build_Failed_ExtractYearMonth"
	PanelBaseFromPoints       = "DateSelector_Build_Failed_PanelBase_From_Points"
	DatesFromPoints           = "DateSelector_Build_Failed_Dates_From_Points"
	SelectorFromPoints        = "DateSelector_Build_Failed_DateSelector_From_Points"
	MultipleDatePickers       = "DateSelector_Query_Multiple_Pickers"
	PanelsBaseNotFound        = "DateSelector_Query_PanelsBase_Not_Found"
	StatusSelectorNotOnchange = "StatusSelector_Build_Failed_Not_Onchange"
)

// Localizer formats a message by key. Unknown keys are formatted verbatim.
type Localizer interface {
	Sprintf(key string, args ...any) string
}

var entries = map[language.Tag]map[string]string{
	language.English: {
		InvalidRegexWithError:     "invalid regular expression: %s",
		DetailsFromPoints:         "cannot resolve the %s element from its point",
		ExtractYearMonth:          "cannot find the year and month text of the date picker",
		PanelBaseFromPoints:       "cannot find the common base of the date picker panels",
		DatesFromPoints:           "no day cells were found among the recorded points",
		SelectorFromPoints:        "cannot build the selector for %s",
		MultipleDatePickers:       "expected exactly one date picker, found %d",
		PanelsBaseNotFound:        "the date picker base element was not found",
		StatusSelectorNotOnchange: "clicking the status element did not change any attribute",
	},
	language.SimplifiedChinese: {
		InvalidRegexWithError:     "无效的正则表达式: %s",
		DetailsFromPoints:         "坐标转元素失败: %s",
		ExtractYearMonth:          "解析年月失败",
		PanelBaseFromPoints:       "获取PanelBase失败",
		DatesFromPoints:           "构建日相似元素失败",
		SelectorFromPoints:        "构建选择器失败: %s",
		MultipleDatePickers:       "找到多个日期选择器: %d",
		PanelsBaseNotFound:        "未找到日期选择器基准元素",
		StatusSelectorNotOnchange: "点击状态元素后没有属性变化",
	},
}

// Supported lists the locales with a full catalog.
var Supported = []language.Tag{language.English, language.SimplifiedChinese}

// Catalog is a locale-bound Localizer.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// New builds a catalog for the closest supported match of locale. Unparseable
// or unsupported locales fall back to English.
func New(locale string) (*Catalog, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}

	tag := language.English
	if requested, err := language.Parse(locale); err == nil {
		matcher := language.NewMatcher(Supported)
		_, idx, conf := matcher.Match(requested)
		if conf != language.No {
			tag = Supported[idx]
		}
	}

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

// Tag is the resolved locale.
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

func (c *Catalog) Sprintf(key string, args ...any) string {
	return c.printer.Sprintf(key, args...)
}
