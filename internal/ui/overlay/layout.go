package overlay

import "fyne.io/fyne/v2"

// rightPanelLayout places a square icon above a right-aligned button.
type rightPanelLayout struct{}

func (layout *rightPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	icon := objects[0]
	skip := objects[1]

	skipSize := skip.MinSize()
	skipHeight := min(skipSize.Height, size.Height*0.25)
	iconAreaHeight := max(size.Height-skipHeight, 0)

	margin := iconAreaHeight * 0.1
	side := max(min(iconAreaHeight*0.8, size.Width-margin), 0)
	x := max(size.Width-margin-side, 0)
	icon.Move(fyne.NewPos(x, margin))
	icon.Resize(fyne.NewSize(side, side))

	skipWidth := min(skipSize.Width*1.4, size.Width)
	skipX := max(x+side-skipWidth, 0)
	skipY := max(iconAreaHeight+(skipHeight-skipSize.Height)/2, 0)
	skip.Move(fyne.NewPos(skipX, skipY))
	skip.Resize(fyne.NewSize(skipWidth, skipSize.Height))
}

func (layout *rightPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	iconMin := objects[0].MinSize()
	skipMin := objects[1].MinSize()
	return fyne.NewSize(max(iconMin.Width, skipMin.Width), iconMin.Height+skipMin.Height)
}

// leftPanelLayout stacks title, hint and up-next lines at the top and pins
// the countdown to the bottom edge.
type leftPanelLayout struct{}

const lineGap = 6

func (layout *leftPanelLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 4 {
		return
	}
	pad := size.Height * 0.05
	availableWidth := max(size.Width-pad*2, 0)

	y := pad
	for _, line := range objects[:3] {
		lineSize := line.MinSize()
		line.Move(fyne.NewPos(pad, y))
		line.Resize(fyne.NewSize(availableWidth, lineSize.Height))
		y += lineSize.Height + lineGap
	}

	timer := objects[3]
	timerSize := timer.MinSize()
	timer.Move(fyne.NewPos(pad, max(size.Height-pad-timerSize.Height, 0)))
	timer.Resize(timerSize)
}

func (layout *leftPanelLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 4 {
		return fyne.NewSize(0, 0)
	}
	var width, height float32
	for _, object := range objects[:4] {
		objectSize := object.MinSize()
		width = max(width, objectSize.Width)
		height += objectSize.Height
	}
	return fyne.NewSize(width+20, height+3*lineGap+20)
}
