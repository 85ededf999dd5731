package recorder

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/stats"
)

// Outcome 是一次成功 spin 需要被紀錄的資訊
type Outcome struct {
	PrizeIndex int
	Forced     bool
	Streak     int // spin 之後的連續未中大獎次數
}

// SpinRecorder 轉盤紀錄員
//
// 每個模擬 worker 各持有一個（不加鎖），結束後以 MergeSpinRecorder 合併，再透過 Report 輸出統計報表。
type SpinRecorder struct {
	Name        string
	BigWinEvery int
	Prizes      []spec.Prize
	Expected    []float64 // 各獎項理論機率

	Counts         []int // 全部命中
	Natural        []int // 非保底命中
	Spins          int
	Denied         int
	Forced         int
	BigWins        int
	LongestNonBig  int
	PityViolations int
	TotalValue     decimal.Decimal
}

// NewSpinRecorder 建立紀錄員；expected 必須與 prizes 等長。
func NewSpinRecorder(ss *spec.SpinSetting, expected []float64) (*SpinRecorder, error) {
	if ss == nil || len(ss.Prizes) == 0 {
		return nil, errs.NewFatal("spin setting with prizes required")
	}
	if len(expected) != len(ss.Prizes) {
		return nil, errs.NewFatal(fmt.Sprintf("expected len %d != prizes len %d", len(expected), len(ss.Prizes)))
	}
	n := len(ss.Prizes)
	return &SpinRecorder{
		Name:        ss.Name,
		BigWinEvery: ss.BigWinEvery,
		Prizes:      ss.Prizes,
		Expected:    expected,
		Counts:      make([]int, n),
		Natural:     make([]int, n),
		TotalValue:  decimal.Zero,
	}, nil
}

// Record 紀錄一次成功的 spin
func (s *SpinRecorder) Record(o Outcome) {
	if o.PrizeIndex < 0 || o.PrizeIndex >= len(s.Prizes) {
		return
	}
	p := s.Prizes[o.PrizeIndex]
	s.Spins++
	s.Counts[o.PrizeIndex]++
	if o.Forced {
		s.Forced++
	} else {
		s.Natural[o.PrizeIndex]++
	}
	if p.IsBig {
		s.BigWins++
	}
	if o.Streak > s.LongestNonBig {
		s.LongestNonBig = o.Streak
	}
	if o.Streak >= s.BigWinEvery {
		s.PityViolations++
	}
	s.TotalValue = s.TotalValue.Add(p.Value)
}

// RecordDenied 紀錄一次被冷卻擋下的請求
func (s *SpinRecorder) RecordDenied() {
	s.Denied++
}

// MergeSpinRecorder 合併多個同一轉盤的紀錄
func MergeSpinRecorder(rs []*SpinRecorder) (*SpinRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty")
	}
	r0 := rs[0]
	out := &SpinRecorder{
		Name:        r0.Name,
		BigWinEvery: r0.BigWinEvery,
		Prizes:      r0.Prizes,
		Expected:    r0.Expected,
		Counts:      make([]int, len(r0.Prizes)),
		Natural:     make([]int, len(r0.Prizes)),
		TotalValue:  decimal.Zero,
	}
	for _, r := range rs {
		if r.Name != r0.Name || len(r.Prizes) != len(r0.Prizes) {
			return nil, errs.NewFatal("merge spin record err : different wheel")
		}
		if r.BigWinEvery != r0.BigWinEvery {
			return nil, errs.NewFatal("merge spin record err : different big_win_every")
		}
		for i := range r.Counts {
			out.Counts[i] += r.Counts[i]
			out.Natural[i] += r.Natural[i]
		}
		out.Spins += r.Spins
		out.Denied += r.Denied
		out.Forced += r.Forced
		out.BigWins += r.BigWins
		out.PityViolations += r.PityViolations
		out.LongestNonBig = max(out.LongestNonBig, r.LongestNonBig)
		out.TotalValue = out.TotalValue.Add(r.TotalValue)
	}
	return out, nil
}

// Report 產生統計報表（已呼叫 Done）
func (s *SpinRecorder) Report(players int) *stats.StatReport {
	natBig := 0.0
	prizes := make([]stats.PrizeReport, len(s.Prizes))
	for i, p := range s.Prizes {
		prizes[i] = stats.PrizeReport{
			Index:    i,
			Label:    p.Label,
			Value:    p.Value.String(),
			IsBig:    p.IsBig,
			Count:    s.Counts[i],
			Natural:  s.Natural[i],
			Expected: s.Expected[i],
		}
		if p.IsBig {
			natBig += s.Expected[i]
		}
	}
	mean := decimal.Zero
	if s.Spins > 0 {
		mean = s.TotalValue.Div(decimal.NewFromInt(int64(s.Spins)))
	}
	r := &stats.StatReport{
		Summary: &stats.SummaryReport{
			Name:           s.Name,
			Players:        players,
			BigWinEvery:    s.BigWinEvery,
			Spins:          s.Spins,
			Denied:         s.Denied,
			Forced:         s.Forced,
			BigWins:        s.BigWins,
			NaturalBigRate: natBig,
			LongestNonBig:  s.LongestNonBig,
			PityViolations: s.PityViolations,
			TotalValue:     s.TotalValue.String(),
			MeanValue:      mean.StringFixed(4),
		},
		Prizes: prizes,
	}
	r.Done()
	return r
}
