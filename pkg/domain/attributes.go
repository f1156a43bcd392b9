package domain

// Random は「おまかせ」を表す番兵値です。
// UI 側のセレクタが出力する既定値と一致させています。
const Random = "随机"

// AttributeSet はモデル像を規定する属性一式のスナップショットです。
// 所有権は呼び出し側（UI 状態）にあり、本ライブラリは受け取った
// スナップショットを変更しません。
type AttributeSet struct {
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	Ethnicity      string   `json:"ethnicity"`
	Pose           string   `json:"pose"`
	Expression     string   `json:"expression"`
	Hairstyle      string   `json:"hairstyle"`
	HairColor      string   `json:"hair_color"`
	BodyType       string   `json:"body_type"`
	FacialFeatures []string `json:"facial_features,omitempty"`
	Height         int      `json:"height"`
	ShotType       string   `json:"shot_type"`
	Scene          string   `json:"scene"`
	AspectRatio    string   `json:"aspect_ratio"`
}

// DefaultAttributeSet は UI の初期状態と同じ既定値を返します。
// 年齢 18 は安全ポリシー上もっとも拒否されにくい値です。
func DefaultAttributeSet() AttributeSet {
	return AttributeSet{
		Age:         18,
		Gender:      Random,
		Ethnicity:   Random,
		Pose:        "站立",
		Expression:  "微笑",
		Hairstyle:   Random,
		HairColor:   Random,
		BodyType:    Random,
		Height:      170,
		ShotType:    "全身",
		Scene:       "影棚",
		AspectRatio: "9:16",
	}
}

// Clone はスライスまで複製した独立コピーを返します。
// プリセット保存時にスナップショットの独立性を保つために使います。
func (a AttributeSet) Clone() AttributeSet {
	cloned := a
	if len(a.FacialFeatures) > 0 {
		cloned.FacialFeatures = append([]string(nil), a.FacialFeatures...)
	}
	return cloned
}
