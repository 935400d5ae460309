// Package conclusion 渲染分析结果：分析完成后的结论页与两种纯文本报告导出。
package conclusion

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/houzhh15/discussion-host/pkg/analysis"
)

// 分析没有结论时面板显示的兜底文本
const (
	FallbackTitle = "No Definitive Conclusion Reached"
	FallbackBody  = "The AI facilitator analyzed the discussion but could not determine a single, " +
		"high-confidence outcome. This may be due to deeply divided opinions, a lack of actionable " +
		"proposals, or insufficient time for the complexity of the topic."
)

// View 结论页模型
type View struct {
	Topic        string           `json:"topic"`
	Participants int              `json:"participants"`
	Duration     int              `json:"duration"`
	Result       *analysis.Result `json:"result"`
}

// HasConclusion 结果中是否至少有一条结论
func (v View) HasConclusion() bool {
	return v.Result != nil && len(v.Result.Conclusions) > 0
}

// FinalOutcome 第一条结论，没有时为空串
func (v View) FinalOutcome() string {
	if !v.HasConclusion() {
		return ""
	}
	return v.Result.Conclusions[0]
}

// ConfidencePercent 置信度的整数百分比
func (v View) ConfidencePercent() int {
	return int(v.Result.Confidence()*100 + 0.5)
}

// Summary 结论页的 JSON 结构
type Summary struct {
	Topic             string   `json:"topic"`
	HasConclusion     bool     `json:"has_conclusion"`
	FinalOutcome      string   `json:"final_outcome,omitempty"`
	Reasoning         string   `json:"reasoning,omitempty"`
	ConfidencePercent int      `json:"confidence_percent"`
	KeyArguments      []string `json:"key_arguments,omitempty"`
	FallbackTitle     string   `json:"fallback_title,omitempty"`
	FallbackBody      string   `json:"fallback_body,omitempty"`
	Sentiment         string   `json:"sentiment"`
	Participation     string   `json:"participation"`
	FullSummary       string   `json:"full_summary"`
}

// Summarize 构建 HTTP 控制台使用的页面模型
func (v View) Summarize() Summary {
	s := Summary{Topic: v.Topic, HasConclusion: v.HasConclusion()}
	if v.Result != nil {
		s.Sentiment = v.Result.Sentiment
		s.Participation = v.Result.ParticipationAnalysis
		s.FullSummary = v.Result.Summary
	}
	if s.HasConclusion {
		s.FinalOutcome = v.FinalOutcome()
		s.Reasoning = v.Result.Reasoning
		s.ConfidencePercent = v.ConfidencePercent()
		s.KeyArguments = v.Result.KeyPoints
	} else {
		s.FallbackTitle = FallbackTitle
		s.FallbackBody = FallbackBody
	}
	return s
}

// Render 以终端文本输出结论页
func (v View) Render(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Discussion Outcome\n")
	ew.printf("%s\n\n", v.Topic)

	if v.HasConclusion() {
		ew.printf("Final Conclusion\n  %s\n\n", v.FinalOutcome())
		ew.printf("Reasoning\n  %s\n\n", v.Result.Reasoning)
		ew.printf("Confidence Score: %d%%\n\n", v.ConfidencePercent())
		if len(v.Result.KeyPoints) > 0 {
			ew.printf("Key Arguments\n")
			for _, p := range v.Result.KeyPoints {
				ew.printf("  • %s\n", p)
			}
			ew.printf("\n")
		}
	} else {
		ew.printf("%s\n  %s\n\n", FallbackTitle, FallbackBody)
	}

	var sentiment, participation, summary string
	if v.Result != nil {
		sentiment = v.Result.Sentiment
		participation = v.Result.ParticipationAnalysis
		summary = v.Result.Summary
	}
	ew.printf("Sentiment\n  %s\n\n", sentiment)
	ew.printf("Participation\n  %s\n\n", participation)
	ew.printf("Full Summary\n  %s\n", summary)
	return ew.err
}

var whitespace = regexp.MustCompile(`\s+`)

// ReportFileName 结论报告的下载文件名
func (v View) ReportFileName() string {
	return "Option.ai_Report_" + whitespace.ReplaceAllString(v.Topic, "_") + ".txt"
}

// Report 输出结论报告，无结果时不输出
func (v View) Report(w io.Writer) error {
	if v.Result == nil {
		return nil
	}
	r := v.Result
	ew := &errWriter{w: w}
	ew.printf("Option.ai - The AI Decision Platform\n")
	ew.printf("=====================================\n\n")
	ew.printf("Discussion Topic: %s\n", v.Topic)
	ew.printf("Participants: %d\n", v.Participants)
	ew.printf("Duration: %d minutes\n\n", v.Duration)
	ew.printf("-------------------------------------\n\n")
	ew.printf("✅ FINAL CONCLUSION\n------------------\n")
	if v.HasConclusion() {
		ew.printf("%s\n\n", v.FinalOutcome())
	} else {
		ew.printf("%s\n\n", FallbackTitle)
	}
	ew.printf("Confidence: %d%%\n", v.ConfidencePercent())
	ew.printf("Reasoning: %s\n\n", r.Reasoning)
	ew.printf("🔑 KEY ARGUMENTS\n-----------------\n%s\n\n", dashList(r.KeyPoints))
	ew.printf("💡 COMMON THEMES\n----------------\n%s\n\n", dashList(r.CommonThemes))
	ew.printf("📝 SUMMARY\n-----------\n%s\n\n", r.Summary)
	ew.printf("😊 SENTIMENT & PARTICIPATION\n-----------------------------\n")
	ew.printf("Sentiment: %s\n", r.Sentiment)
	ew.printf("Participation: %s\n", r.ParticipationAnalysis)
	return ew.err
}

// AnalysisReportFileName 会议室分析报告的下载文件名
func AnalysisReportFileName(now time.Time) string {
	return fmt.Sprintf("discussion-analysis-%d.txt", now.UnixMilli())
}

// AnalysisReport 输出会议室中提供的分析报告
func (v View) AnalysisReport(w io.Writer, now time.Time) error {
	if v.Result == nil {
		return nil
	}
	r := v.Result
	ew := &errWriter{w: w}
	ew.printf("AI Discussion Analysis Report\n")
	ew.printf("============================\n\n")
	ew.printf("Topic: %s\n", v.Topic)
	ew.printf("Participants: %d\n", v.Participants)
	ew.printf("Duration: %d minutes\n", v.Duration)
	ew.printf("Date: %s\n\n", now.Format("2006-01-02 15:04:05"))
	ew.printf("SUMMARY\n-------\n%s\n\n", r.Summary)
	ew.printf("KEY POINTS\n----------\n%s\n\n", bulletList(r.KeyPoints))
	ew.printf("COMMON THEMES\n-------------\n%s\n\n", bulletList(r.CommonThemes))
	ew.printf("CONCLUSIONS\n-----------\n%s\n\n", bulletList(r.Conclusions))
	ew.printf("SENTIMENT ANALYSIS\n------------------\n%s\n\n", r.Sentiment)
	ew.printf("PARTICIPATION ANALYSIS\n----------------------\n%s\n\n", r.ParticipationAnalysis)
	ew.printf("---\nGenerated by Option.ai - AI-Powered Discussion Platform\n")
	return ew.err
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "• " + it
	}
	return strings.Join(lines, "\n")
}

func dashList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "- " + strings.Join(items, "\n- ")
}

// errWriter 保留第一个写入错误
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
