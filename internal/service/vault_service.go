package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// 奖励页固定内容：冥想曲目与每日肯定语卡片。
var vaultTracks = []string{
	"3:33 HR Magnetic",
	"Everything is a Miracle",
	"Whispers of the Unseen",
	"Future Timeline 8/8 Portal",
}

const quantumCardText = "The Magnet — I become the frequency of what I desire."

// Milestone 描述一个连续打卡里程碑及其奖励。
type Milestone struct {
	Days    int    `json:"days"`
	Reward  string `json:"reward"`
	Reached bool   `json:"reached"`
}

// 壁纸先按小尺寸渲染，再用 CatmullRom 放大到目标分辨率，
// 柔化径向渐变的色带。
const (
	wallpaperBaseWidth  = 270
	wallpaperBaseHeight = 480
	wallpaperWidth      = 1080
	wallpaperHeight     = 1920
)

// VaultService 提供奖励页内容与壁纸生成。
type VaultService struct{}

// NewVaultService 构造 VaultService。
func NewVaultService() *VaultService {
	return &VaultService{}
}

// Tracks 返回夜间冥想曲目列表。
func (s *VaultService) Tracks() []string {
	out := make([]string, len(vaultTracks))
	copy(out, vaultTracks)
	return out
}

// QuantumCard 返回每日肯定语卡片文案。
func (s *VaultService) QuantumCard() string {
	return quantumCardText
}

// Milestones 返回 7/14/21 天里程碑，并根据当前 streak 标记已达成项。
func (s *VaultService) Milestones(streak int) []Milestone {
	return []Milestone{
		{Days: 7, Reward: "7-day portal: unlock mini audio", Reached: streak >= 7},
		{Days: 14, Reward: "14-day: evolving sound sigil", Reached: streak >= 14},
		{Days: 21, Reward: "21-day: wallpaper pack + streak insurance", Reached: streak >= 21},
	}
}

// WallpaperPNG 根据能量球色相生成一张 1080x1920 的印记壁纸。
func (s *VaultService) WallpaperPNG(orbCharge, mood int) ([]byte, error) {
	hue := OrbHue(orbCharge, mood)

	base := image.NewRGBA(image.Rect(0, 0, wallpaperBaseWidth, wallpaperBaseHeight))

	// 径向渐变：光心偏左上，模拟原始界面的 radial-gradient(circle at 30% 30%)
	cx := float64(wallpaperBaseWidth) * 0.3
	cy := float64(wallpaperBaseHeight) * 0.3
	maxDist := math.Hypot(float64(wallpaperBaseWidth), float64(wallpaperBaseHeight))

	for y := 0; y < wallpaperBaseHeight; y++ {
		for x := 0; x < wallpaperBaseWidth; x++ {
			dist := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			lightness := 0.70 - 0.55*dist
			if lightness < 0.05 {
				lightness = 0.05
			}
			base.Set(x, y, hslToRGBA(float64(hue), 0.88, lightness))
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, wallpaperWidth, wallpaperHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode wallpaper: %w", err)
	}
	return buf.Bytes(), nil
}

// hslToRGBA 将 HSL 颜色转换到 RGBA，h 取角度值（可超出 360，自动取模）。
func hslToRGBA(h, s, l float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}
