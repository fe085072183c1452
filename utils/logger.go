package utils

import (
	"io"
	"log"
	"os"
	"time"
)

var (
	// InfoLogger は情報レベルのログを出力します
	InfoLogger *log.Logger
	// WarnLogger は警告レベルのログを出力します
	WarnLogger *log.Logger
	// ErrorLogger はエラーレベルのログを出力します
	ErrorLogger *log.Logger
)

// 標準出力はサマリーと生成結果用。警告とエラーは標準エラーへ出す
const logFlags = log.Ldate | log.Ltime | log.Lmsgprefix

func init() {
	ResetOutput()
}

// SetOutput はすべてのロガーの出力先を差し替えます（テスト用）
func SetOutput(w io.Writer) {
	InfoLogger = log.New(w, "INFO: ", logFlags)
	WarnLogger = log.New(w, "WARN: ", logFlags)
	ErrorLogger = log.New(w, "ERROR: ", logFlags)
}

// ResetOutput は出力先を既定（INFOは標準出力、WARN/ERRORは標準エラー）に戻します
func ResetOutput() {
	InfoLogger = log.New(os.Stdout, "INFO: ", logFlags)
	WarnLogger = log.New(os.Stderr, "WARN: ", logFlags)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", logFlags)
}

// LogInfo は情報レベルのメッセージをログに記録します
func LogInfo(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

// LogWarn は警告レベルのメッセージをログに記録します
func LogWarn(format string, v ...interface{}) {
	WarnLogger.Printf(format, v...)
}

// LogError はエラーレベルのメッセージをログに記録します
func LogError(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}

// TrackTime は関数の実行時間を計測して出力するユーティリティです
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	LogInfo("%s 完了時間: %s", name, elapsed)
}
