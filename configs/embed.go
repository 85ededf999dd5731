package configs

import (
	"embed"

	"github.com/zintix-labs/luckywheel/spec"
)

// DefaultName 內建預設轉盤設定的檔名
const DefaultName = "default.yaml"

// FS 內建的轉盤設定（*.yaml）
//
//go:embed *.yaml
var FS embed.FS

// Default 載入內建預設設定
func Default() (*spec.SpinSetting, error) {
	return spec.LoadSpinSetting(FS, DefaultName)
}
