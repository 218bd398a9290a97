package store

import (
	"fmt"

	kin "github.com/molviz/kinetraj"
)

// Frame fills f with the unwrapped positions of frame i. The step time of
// the first atom becomes the frame time, and the box is the last one read,
// as per-frame boxes are not kept. f must have room for Len() positions.
func (S *Store) Frame(i int, f *kin.Frame) error {
	if i < 0 || i >= S.frames {
		return fmt.Errorf("frame %d out of range, %d frames loaded", i, S.frames)
	}
	if len(f.Coords) != len(S.atoms) {
		return fmt.Errorf("frame has room for %d positions, %d atoms loaded", len(f.Coords), len(S.atoms))
	}
	f.Step = i
	f.Time = 0
	if len(S.atoms) > 0 {
		f.Time = float64(S.atoms[0].StepTime[i])
	}
	f.Box = [9]float64{S.box[0], 0, 0, 0, S.box[1], 0, 0, 0, S.box[2]}
	for j, at := range S.atoms {
		f.Coords[j] = at.Trajectory[i]
	}
	return nil
}

// Export writes every loaded frame, unwrapped, to w. It returns the number of
// frames written. w is not closed.
func (S *Store) Export(w kin.TrajWriter) (int, error) {
	if w.Len() != len(S.atoms) {
		return 0, fmt.Errorf("%w: writer takes %d, %d loaded", ErrAtomCount, w.Len(), len(S.atoms))
	}
	f := kin.NewFrame(len(S.atoms))
	for i := 0; i < S.frames; i++ {
		if err := S.Frame(i, f); err != nil {
			return i, err
		}
		if err := w.WNext(f); err != nil {
			return i, fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	S.emit(fmt.Sprintf("Exported %d frames", S.frames), shortNotice)
	return S.frames, nil
}
