package suggest

import "github.com/jonesrussell/crawldesk/internal/job"

// Suggestion is one autocomplete candidate. Selecting one assigns the
// board field of the job description.
type Suggestion struct {
	Value       string `json:"value"`
	Label       string `json:"label,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// offlineSeeds are well-known boards per site, in popularity order. They
// serve as the fallback when the backend is unreachable and as the
// tie-break order when ranking matches.
var offlineSeeds = map[job.Site][]Suggestion{
	job.SiteReddit: {
		{Value: "askreddit", Label: "r/AskReddit"},
		{Value: "worldnews", Label: "r/worldnews"},
		{Value: "gaming", Label: "r/gaming"},
		{Value: "technology", Label: "r/technology"},
		{Value: "programming", Label: "r/programming"},
		{Value: "movies", Label: "r/movies"},
		{Value: "science", Label: "r/science"},
		{Value: "funny", Label: "r/funny"},
		{Value: "todayilearned", Label: "r/todayilearned"},
		{Value: "music", Label: "r/Music"},
	},
	job.SiteDCInside: {
		{Value: "싱글벙글", Label: "싱글벙글 갤러리"},
		{Value: "야구", Label: "야구 갤러리"},
		{Value: "주식", Label: "주식 갤러리"},
		{Value: "해외축구", Label: "해외축구 갤러리"},
		{Value: "프로그래밍", Label: "프로그래밍 갤러리"},
		{Value: "게임", Label: "게임 갤러리"},
		{Value: "만화", Label: "만화 갤러리"},
	},
	job.SiteBlind: {
		{Value: "블라블라", Label: "블라블라"},
		{Value: "개발자", Label: "개발자"},
		{Value: "이직", Label: "이직·커리어"},
		{Value: "주식투자", Label: "주식·투자"},
		{Value: "회사생활", Label: "회사생활"},
	},
	job.SiteLemmy: {
		{Value: "technology@lemmy.world", Label: "Technology", Description: "lemmy.world"},
		{Value: "asklemmy@lemmy.ml", Label: "Ask Lemmy", Description: "lemmy.ml"},
		{Value: "worldnews@lemmy.ml", Label: "World News", Description: "lemmy.ml"},
		{Value: "programming@programming.dev", Label: "Programming", Description: "programming.dev"},
		{Value: "games@lemmy.world", Label: "Games", Description: "lemmy.world"},
		{Value: "linux@lemmy.ml", Label: "Linux", Description: "lemmy.ml"},
	},
}

// bbcSections is the static section list for BBC; there is no backend
// autocomplete for it.
var bbcSections = []Suggestion{
	{Value: "news", Label: "News"},
	{Value: "sport", Label: "Sport"},
	{Value: "business", Label: "Business"},
	{Value: "innovation", Label: "Innovation"},
	{Value: "culture", Label: "Culture"},
	{Value: "arts", Label: "Arts"},
	{Value: "travel", Label: "Travel"},
	{Value: "earth", Label: "Earth"},
}

// bbcSynonyms maps localized terms to BBC section values so typing in
// Korean or Japanese still finds the section.
var bbcSynonyms = map[string]string{
	"뉴스":     "news",
	"스포츠":    "sport",
	"비즈니스":   "business",
	"경제":     "business",
	"문화":     "culture",
	"예술":     "arts",
	"여행":     "travel",
	"ニュース":   "news",
	"スポーツ":   "sport",
	"ビジネス":   "business",
	"カルチャー":  "culture",
	"アート":    "arts",
	"トラベル":   "travel",
}
