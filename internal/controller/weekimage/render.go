// Package weekimage рисует расписание недели группы картинкой
package weekimage

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"sort"
	"time"

	"github.com/fogleman/gg"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const (
	imageWidth   = 1200
	imageHeight  = 700
	headerHeight = 80
	cardHeight   = 90
	cardMargin   = 8
	cardRadius   = 8
	daysInWeek   = 7
)

var (
	bgColor     = color.RGBA{245, 246, 248, 255}
	headerColor = color.RGBA{80, 85, 90, 255}
	todayColor  = color.RGBA{66, 133, 244, 255}
	cardColor   = color.RGBA{255, 255, 255, 255}
	fullColor   = color.RGBA{252, 232, 230, 255}
	textColor   = color.RGBA{60, 64, 67, 255}
	mutedColor  = color.RGBA{130, 135, 140, 255}
)

var weekdayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Renderer рисует недельную сетку тренировок. Шрифт берётся из файла,
// без него — встроенный растровый (хуже, но работает везде).
type Renderer struct {
	fontPath string
	location *time.Location
}

func NewRenderer(fontPath string, location *time.Location) *Renderer {
	return &Renderer{
		fontPath: fontPath,
		location: location,
	}
}

func (r *Renderer) face(size float64) font.Face {
	if r.fontPath == "" {
		return basicfont.Face7x13
	}

	data, err := os.ReadFile(r.fontPath)
	if err != nil {
		return basicfont.Face7x13
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// RenderWeek рисует сетку на 7 дней начиная с сегодняшнего.
// seatsTaken — занятые места по слотам, для подписи «занято/всего».
func (r *Renderer) RenderWeek(slots []*model.TrainingSlot, seatsTaken map[int64]int, now time.Time) ([]byte, error) {
	now = now.In(r.location)
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	colWidth := float64(imageWidth) / daysInWeek

	// Слоты по дням, внутри дня — по времени начала
	byDay := make(map[int][]*model.TrainingSlot)
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.location)
	for _, slot := range slots {
		day := int(slot.StartsAt.In(r.location).Sub(weekStart).Hours() / 24)
		if day < 0 || day >= daysInWeek {
			continue
		}
		byDay[day] = append(byDay[day], slot)
	}
	for _, daySlots := range byDay {
		sort.Slice(daySlots, func(i, j int) bool {
			return daySlots[i].StartsAt.Before(daySlots[j].StartsAt)
		})
	}

	headerFace := r.face(24)
	titleFace := r.face(20)
	smallFace := r.face(15)

	for day := 0; day < daysInWeek; day++ {
		date := weekStart.AddDate(0, 0, day)
		x := float64(day) * colWidth

		// Заголовок дня
		dc.SetFontFace(headerFace)
		if day == 0 {
			dc.SetColor(todayColor)
		} else {
			dc.SetColor(headerColor)
		}
		label := fmt.Sprintf("%s %s", weekdayNames[int(date.Weekday())], date.Format("02.01"))
		dc.DrawStringAnchored(label, x+colWidth/2, headerHeight/2, 0.5, 0.5)

		for i, slot := range byDay[day] {
			y := float64(headerHeight) + float64(i)*(cardHeight+cardMargin) + cardMargin
			if y+cardHeight > imageHeight {
				break
			}

			taken := seatsTaken[slot.ID]
			if taken >= slot.Capacity {
				dc.SetColor(fullColor)
			} else {
				dc.SetColor(cardColor)
			}
			dc.DrawRoundedRectangle(x+cardMargin, y, colWidth-2*cardMargin, cardHeight, cardRadius)
			dc.Fill()

			dc.SetFontFace(titleFace)
			dc.SetColor(textColor)
			dc.DrawStringAnchored(slot.StartsAt.In(r.location).Format("15:04"), x+colWidth/2, y+25, 0.5, 0.5)

			dc.SetFontFace(smallFace)
			dc.SetColor(mutedColor)
			dc.DrawStringAnchored(fmt.Sprintf("%d/%d", taken, slot.Capacity), x+colWidth/2, y+50, 0.5, 0.5)
			if slot.Note != "" {
				dc.DrawStringAnchored(slot.Note, x+colWidth/2, y+70, 0.5, 0.5)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}

	return buf.Bytes(), nil
}
