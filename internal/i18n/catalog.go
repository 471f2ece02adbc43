package i18n

// catalogs holds all message catalogs, keyed by language.
// Keys mirror the frontend message namespaces so backend status_key values
// resolve directly.
var catalogs = map[Lang]map[string]any{
	English:  catalogEN,
	Korean:   catalogKO,
	Japanese: catalogJA,
}

var catalogEN = map[string]any{
	"crawlButtonMessages": map[string]any{
		"ready":             "Start crawling",
		"noSite":            "Select a site first",
		"noBoard":           "Enter a board to crawl",
		"lemmyFormatError":  "Lemmy communities use the community@instance format",
		"rangeInverted":     "End rank must not be lower than start rank",
		"thresholdNegative": "Minimum filters cannot be negative",
		"dateRangeInvalid":  "Custom date range end must not be before start",
		"sessionActive":     "A crawl is already running",
	},
	"crawlingStatus": map[string]any{
		"connecting":  "Connecting to {site}...",
		"collecting":  "Collecting posts ({count} so far)",
		"translating": "Translating titles...",
		"filtering":   "Applying filters...",
		"processing":  "Processing...",
		"calculating": "Calculating remaining time...",
		"eta":         "About {seconds}s remaining",
		"completed":   "Collected {count} posts in {elapsed}s",
	},
	"errors": map[string]any{
		"connection": "Could not reach the crawl server",
		"protocol":   "Something went wrong, please try again",
		"dropped":    "Connection to the crawl server was lost",
		"cancelled":  "Crawl cancelled",
		"general":    "Something went wrong, please try again",
		"backend": map[string]any{
			"quota_exceeded":   "Daily usage quota exceeded",
			"rate_limited":     "Too many requests, slow down",
			"board_not_found":  "That board could not be found",
			"unsupported_site": "That site is not supported yet",
			"fallback":         "Crawl failed: {code}",
		},
	},
	"export": map[string]any{
		"noResults":          "Nothing to export yet",
		"sessionActive":      "Wait for the current crawl to finish",
		"success":            "Saved {count} posts to {file}",
		"csvFallback":        "Workbook export unavailable, saved CSV instead",
		"mediaCollecting":    "Collecting media files...",
		"mediaCompressing":   "Compressing archive...",
		"mediaReady":         "Archive ready",
		"mediaSuccess":       "Packed {files} files ({size} MB)",
		"mediaPartial":       "{failed} files could not be downloaded",
		"mediaUnsupported":   "Media download is not supported for {site}",
		"serviceUnavailable": "Media service is temporarily unavailable",
		"serviceMissing":     "Media service is not installed on this server",
		"networkError":       "Network error while contacting the media service",
		"processingError":    "Media packaging failed, please try again",
	},
	"summary": map[string]any{
		"completed": "{count} posts",
	},
}

var catalogKO = map[string]any{
	"crawlButtonMessages": map[string]any{
		"ready":             "크롤링 시작",
		"noSite":            "사이트를 먼저 선택해주세요",
		"noBoard":           "게시판을 입력해주세요",
		"lemmyFormatError":  "Lemmy 커뮤니티는 community@instance 형식이어야 합니다",
		"rangeInverted":     "끝 순위는 시작 순위보다 낮을 수 없습니다",
		"thresholdNegative": "최소 필터 값은 음수일 수 없습니다",
		"dateRangeInvalid":  "사용자 지정 기간의 종료일은 시작일보다 빠를 수 없습니다",
		"sessionActive":     "이미 크롤링이 진행 중입니다",
	},
	"crawlingStatus": map[string]any{
		"connecting":  "{site}에 연결하는 중...",
		"collecting":  "게시물 수집 중 (현재 {count}개)",
		"translating": "제목 번역 중...",
		"filtering":   "필터 적용 중...",
		"processing":  "처리 중...",
		"calculating": "남은 시간 계산 중...",
		"eta":         "약 {seconds}초 남음",
		"completed":   "{elapsed}초 동안 {count}개의 게시물을 수집했습니다",
	},
	"errors": map[string]any{
		"connection": "크롤링 서버에 연결할 수 없습니다",
		"protocol":   "문제가 발생했습니다. 다시 시도해주세요",
		"dropped":    "크롤링 서버와의 연결이 끊어졌습니다",
		"cancelled":  "크롤링이 취소되었습니다",
		"general":    "문제가 발생했습니다. 다시 시도해주세요",
		"backend": map[string]any{
			"quota_exceeded":   "일일 사용량을 초과했습니다",
			"rate_limited":     "요청이 너무 많습니다. 잠시 후 다시 시도해주세요",
			"board_not_found":  "게시판을 찾을 수 없습니다",
			"unsupported_site": "아직 지원하지 않는 사이트입니다",
			"fallback":         "크롤링 실패: {code}",
		},
	},
	"export": map[string]any{
		"noResults":          "내보낼 결과가 없습니다",
		"sessionActive":      "진행 중인 크롤링이 끝날 때까지 기다려주세요",
		"success":            "{count}개의 게시물을 {file}에 저장했습니다",
		"csvFallback":        "워크북 내보내기를 사용할 수 없어 CSV로 저장했습니다",
		"mediaCollecting":    "미디어 파일 수집 중...",
		"mediaCompressing":   "압축 파일 생성 중...",
		"mediaReady":         "다운로드 준비 완료",
		"mediaSuccess":       "{files}개 파일을 압축했습니다 ({size} MB)",
		"mediaPartial":       "{failed}개 파일은 다운로드하지 못했습니다",
		"mediaUnsupported":   "{site}는 미디어 다운로드를 지원하지 않습니다",
		"serviceUnavailable": "미디어 서비스를 일시적으로 사용할 수 없습니다",
		"serviceMissing":     "이 서버에는 미디어 서비스가 설치되어 있지 않습니다",
		"networkError":       "미디어 서비스 연결 중 네트워크 오류가 발생했습니다",
		"processingError":    "미디어 압축에 실패했습니다. 다시 시도해주세요",
	},
	"summary": map[string]any{
		"completed": "{count}개 게시물",
	},
}

var catalogJA = map[string]any{
	"crawlButtonMessages": map[string]any{
		"ready":             "クロール開始",
		"noSite":            "サイトを選択してください",
		"noBoard":           "掲示板を入力してください",
		"lemmyFormatError":  "Lemmyコミュニティは community@instance 形式で入力してください",
		"rangeInverted":     "終了順位は開始順位より小さくできません",
		"thresholdNegative": "最小フィルター値は負の数にできません",
		"dateRangeInvalid":  "カスタム期間の終了日は開始日より前にできません",
		"sessionActive":     "クロールは既に実行中です",
	},
	"crawlingStatus": map[string]any{
		"connecting":  "{site}に接続中...",
		"collecting":  "投稿を収集中（現在{count}件）",
		"translating": "タイトルを翻訳中...",
		"filtering":   "フィルターを適用中...",
		"processing":  "処理中...",
		"calculating": "残り時間を計算中...",
		"eta":         "残り約{seconds}秒",
		"completed":   "{elapsed}秒で{count}件の投稿を収集しました",
	},
	"errors": map[string]any{
		"connection": "クロールサーバーに接続できません",
		"protocol":   "エラーが発生しました。もう一度お試しください",
		"dropped":    "クロールサーバーとの接続が切断されました",
		"cancelled":  "クロールをキャンセルしました",
		"general":    "エラーが発生しました。もう一度お試しください",
		"backend": map[string]any{
			"quota_exceeded":   "1日の利用上限を超えました",
			"rate_limited":     "リクエストが多すぎます。しばらくお待ちください",
			"board_not_found":  "掲示板が見つかりません",
			"unsupported_site": "このサイトはまだ対応していません",
			"fallback":         "クロール失敗: {code}",
		},
	},
	"export": map[string]any{
		"noResults":          "エクスポートする結果がありません",
		"sessionActive":      "実行中のクロールが終わるまでお待ちください",
		"success":            "{count}件の投稿を{file}に保存しました",
		"csvFallback":        "ワークブック出力が利用できないためCSVで保存しました",
		"mediaCollecting":    "メディアファイルを収集中...",
		"mediaCompressing":   "アーカイブを圧縮中...",
		"mediaReady":         "ダウンロード準備完了",
		"mediaSuccess":       "{files}個のファイルを圧縮しました（{size} MB）",
		"mediaPartial":       "{failed}個のファイルをダウンロードできませんでした",
		"mediaUnsupported":   "{site}はメディアダウンロードに対応していません",
		"serviceUnavailable": "メディアサービスは一時的に利用できません",
		"serviceMissing":     "このサーバーにはメディアサービスがありません",
		"networkError":       "メディアサービスへの接続中にネットワークエラーが発生しました",
		"processingError":    "メディアの圧縮に失敗しました。もう一度お試しください",
	},
	"summary": map[string]any{
		"completed": "{count}件の投稿",
	},
}
