package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k >= n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// chiSquareGOF 卡方適合度檢定：obs 對理論機率 exp。
//
// 理論機率為 0 的類別不計入自由度；若該類別有觀察值，代表抽到不可能的結果，p = 0。
// 自由度為 0（只有一個可能結果）或沒有樣本時 p = 1。
func chiSquareGOF(obs []int, exp []float64) (chi float64, df int, p float64) {
	n := 0
	for _, o := range obs {
		n += o
	}
	if n == 0 {
		return 0, 0, 1
	}
	k := 0
	for i, e := range exp {
		if e <= 0 {
			if obs[i] > 0 {
				return 0, 0, 0
			}
			continue
		}
		k++
		want := e * float64(n)
		d := float64(obs[i]) - want
		chi += d * d / want
	}
	df = k - 1
	if df <= 0 {
		return chi, 0, 1
	}
	p = distuv.ChiSquared{K: float64(df)}.Survival(chi)
	return chi, df, p
}
