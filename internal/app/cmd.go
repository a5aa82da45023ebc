package app

// Command は起動サブコマンドを表す。
type Command string

const (
	// CommandServe はコンテンツ分析APIサーバーとして起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はメトリクス同期・リアルタイム通知ワーカーとして
	// 起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はコンテンツストアのマイグレーションのみを実行して
	// 終了することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はAPIサーバーの/healthを1回叩いて終了することを示す。
	// シェルを持たないdistrolessイメージのHEALTHCHECKから使用する。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand は先頭引数をサブコマンドとして解析する。
// 引数なし・未知のコマンドはいずれもCommandServeにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
