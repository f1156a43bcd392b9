package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// Flags は属性集合の外側で決まる文脈スイッチです。
// 背景画像と参照モデル画像は属性ではなく添付画像として渡されるため、
// 有無だけをここで受け取ります。
type Flags struct {
	HasCustomBackground bool
	HasModelReference   bool
}

const (
	clauseSeparator  = "，"
	sentenceEnd      = "。"
	featureSeparator = "、"
)

// Build は属性集合を自然文の生成指示に組み立てます。
// 決定的・全域で、失敗しません。節の順序は固定です：
// 被写体参照 → 背景 → 人種 → 年齢 → 任意のスタイリング属性 → 身長 →
// 服装整合 → 撮影範囲 → 姿勢 → 表情 → 宽高比 → 照明・画風の定型句。
// 人口統計・スタイリング属性は番兵値（随机）なら節を出力しません。
// 撮影範囲・姿勢・宽高比は番兵値でも出力される無条件節です。空の節は常に落とします。
func Build(attrs domain.AttributeSet, flags Flags) string {
	clauses := make([]string, 0, 16)
	add := func(clause string) {
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	addAttr := func(label, value string) {
		if value != "" && value != domain.Random {
			add(label + value)
		}
	}
	addAlways := func(label, value string) {
		if value != "" {
			add(label + value)
		}
	}

	if flags.HasModelReference {
		add("使用提供的模特图片作为人物外观参考，生成一张他们穿着所提供服装的写实图片")
	} else {
		add("为提供的服装生成一张写实的模特图")
	}

	if flags.HasCustomBackground {
		add("使用提供的背景图片作为背景")
	} else if attrs.Scene != "" {
		add("场景为" + attrs.Scene)
	}

	addAttr("模特为", attrs.Ethnicity)
	add(fmt.Sprintf("模特年龄约为%d岁", attrs.Age))
	addAttr("性别为", attrs.Gender)
	if len(attrs.FacialFeatures) > 0 {
		add("面部特征包括" + strings.Join(attrs.FacialFeatures, featureSeparator))
	}
	addAttr("发型为", attrs.Hairstyle)
	addAttr("发色为", attrs.HairColor)
	addAttr("体型为", attrs.BodyType)
	add(fmt.Sprintf("身高约为%d厘米", attrs.Height))
	add("与服装风格匹配")

	// 撮影範囲・姿勢・宽高比は番兵値でもそのまま出力する無条件節です。
	addAlways("拍摄范围为", attrs.ShotType)
	addAlways("姿势为", attrs.Pose)
	addAttr("表情为", attrs.Expression)
	addAlways("照片宽高比为", attrs.AspectRatio)
	add("光线柔和")
	add("专业时尚摄影风格，高画质，细节丰富")

	return strings.Join(clauses, clauseSeparator) + sentenceEnd
}
