package stats

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// DefaultConfidence 信賴水準
const DefaultConfidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 轉盤模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Prizes  []PrizeReport  `json:"Prizes"`
	isDone  bool
}

type SummaryReport struct {
	Name           string  `json:"Name"`
	Players        int     `json:"Players"`
	BigWinEvery    int     `json:"BigWinEvery"`
	Spins          int     `json:"Spins"`          // 成功的 spin 次數
	Denied         int     `json:"Denied"`         // 被冷卻擋下的次數
	Forced         int     `json:"Forced"`         // 保底強制的次數
	BigWins        int     `json:"BigWins"`        // 大獎次數（含保底）
	BigRate        float64 `json:"BigRate"`        // BigWins / Spins
	BigRateCI      CI      `json:"BigRateCI"`      // Clopper–Pearson
	NaturalBigRate float64 `json:"NaturalBigRate"` // 不受保底時的理論大獎機率
	LongestNonBig  int     `json:"LongestNonBig"`  // 觀察到的最長連續未中大獎
	PityViolations int     `json:"PityViolations"` // 連續未中大獎 >= BigWinEvery 的次數，必須為 0
	TotalValue     string  `json:"TotalValue"`     // 獎項價值加總（decimal 字串）
	MeanValue      string  `json:"MeanValue"`
	ChiSquare      float64 `json:"ChiSquare"` // 非保底抽獎對理論分佈的卡方統計量
	ChiDF          int     `json:"ChiDF"`
	ChiP           float64 `json:"ChiP"`
}

// PrizeReport 單一獎項的統計
type PrizeReport struct {
	Index    int     `json:"Index"`
	Label    string  `json:"Label"`
	Value    string  `json:"Value"`
	IsBig    bool    `json:"IsBig"`
	Count    int     `json:"Count"`    // 全部命中次數（含保底）
	Natural  int     `json:"Natural"`  // 非保底命中次數
	Expected float64 `json:"Expected"` // 理論機率 weight/total
	Observed float64 `json:"Observed"` // Natural / 非保底總次數
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 一次性計算衍生統計（大獎率與 CI、卡方檢定）並鎖定。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sum := s.Summary
	var ci CI
	sum.BigRate, ci = proportionCICP(sum.BigWins, sum.Spins, DefaultConfidence)
	sum.BigRateCI = ci

	natural := 0
	for _, p := range s.Prizes {
		natural += p.Natural
	}
	obs := make([]int, len(s.Prizes))
	exp := make([]float64, len(s.Prizes))
	for i := range s.Prizes {
		p := &s.Prizes[i]
		obs[i] = p.Natural
		exp[i] = p.Expected
		if natural > 0 {
			p.Observed = float64(p.Natural) / float64(natural)
		}
	}
	sum.ChiSquare, sum.ChiDF, sum.ChiP = chiSquareGOF(obs, exp)

	s.isDone = true
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 以表格輸出摘要與各獎項分佈
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Spins+s.Summary.Denied)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.Name, sk, sm))
	pk, pm := s.fmtPrizes()
	fmt.Println(fmtTable("Prizes", pk, pm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
		return
	}
	sc := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nsps : %d spins/sec\n", m, sc, sps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, sc, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sum := s.Summary
	pity := p.Sprintf("%d", sum.BigWinEvery)
	if sum.BigWinEvery <= 0 || sum.BigWinEvery >= 1<<62 {
		pity = "off"
	}
	basic := map[string]string{
		"Wheel":           sum.Name,
		"Players":         p.Sprintf("%d", sum.Players),
		"Spins":           p.Sprintf("%d", sum.Spins),
		"Denied":          p.Sprintf("%d", sum.Denied),
		"Big Win Every":   pity,
		"Big Wins":        p.Sprintf("%d", sum.BigWins),
		"Forced":          p.Sprintf("%d", sum.Forced),
		"Big Rate":        p.Sprintf("%.4f %%", 100.0*sum.BigRate),
		"Big Rate 95% CI": p.Sprintf("[%.4f%%,%.4f%%]", 100.0*sum.BigRateCI.Lo, 100.0*sum.BigRateCI.Hi),
		"Natural Big":     p.Sprintf("%.4f %%", 100.0*sum.NaturalBigRate),
		"Longest NonBig":  p.Sprintf("%d", sum.LongestNonBig),
		"Pity Violations": p.Sprintf("%d", sum.PityViolations),
		"Total Value":     sum.TotalValue,
		"Mean Value":      sum.MeanValue,
		"Chi-Square":      p.Sprintf("%.3f (df=%d)", sum.ChiSquare, sum.ChiDF),
		"Chi p-value":     p.Sprintf("%.4f", sum.ChiP),
	}
	keys := []string{"Wheel", "Players", "Spins", "Denied", "Big Win Every", "Big Wins", "Forced", "Big Rate", "Big Rate 95% CI", "Natural Big", "Longest NonBig", "Pity Violations", "Total Value", "Mean Value", "Chi-Square", "Chi p-value"}
	return keys, basic
}

func (s *StatReport) fmtPrizes() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Prizes))
	msg := make(map[string]string, len(s.Prizes))
	for _, pr := range s.Prizes {
		k := fmt.Sprintf("#%d %s", pr.Index, pr.Label)
		if pr.IsBig {
			k += " *"
		}
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d  obs %.3f%%  exp %.3f%%", pr.Count, 100.0*pr.Observed, 100.0*pr.Expected)
	}
	return keys, msg
}
