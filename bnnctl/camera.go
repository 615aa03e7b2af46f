package bnnctl

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	CAMERA_SAMPLE_PURGE_SIZE = 3
	CAMERA_SAMPLE_SIZE       = 3
)

// Camera turns a capture device into a periodic source of bitmap jobs.
type Camera struct {
	device string
	cfg    Config
	vc     *gocv.VideoCapture
}

func OpenCamera(device string, cfg Config) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "open camera %s", device)
	}
	return &Camera{device: device, cfg: cfg, vc: vc}, nil
}

// Sample drops stale buffered frames, then averages CAMERA_SAMPLE_SIZE
// grayscale frames into one 8 bit image. The caller closes the result.
func (c *Camera) Sample() (gocv.Mat, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	// Purge buffer for CAMERA_SAMPLE_PURGE_SIZE frames
	for i := 0; i < CAMERA_SAMPLE_PURGE_SIZE; i++ {
		if !c.vc.Read(&frame) {
			return gocv.NewMat(), errors.Errorf("camera %s: read failed", c.device)
		}
	}

	frames := make([]gocv.Mat, 0, CAMERA_SAMPLE_SIZE)
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()
	for i := 0; i < CAMERA_SAMPLE_SIZE; i++ {
		if !c.vc.Read(&frame) || frame.Empty() {
			return gocv.NewMat(), errors.Errorf("camera %s: read failed", c.device)
		}
		frames = append(frames, frame.Clone())
	}
	return averageGray(frames)
}

// averageGray converts each frame to grayscale and returns their mean.
func averageGray(frames []gocv.Mat) (gocv.Mat, error) {
	if len(frames) == 0 {
		return gocv.NewMat(), errors.New("camera: no frames to average")
	}
	rows, cols := frames[0].Rows(), frames[0].Cols()
	masterMat := gocv.Zeros(rows, cols, gocv.MatTypeCV16UC1)
	defer masterMat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	for _, f := range frames {
		if f.Rows() != rows || f.Cols() != cols {
			return gocv.NewMat(), errors.Errorf("camera: frame size %dx%d, want %dx%d", f.Cols(), f.Rows(), cols, rows)
		}
		if f.Channels() == 3 {
			gocv.CvtColor(f, &gray, gocv.ColorBGRToGray)
		} else {
			f.CopyTo(&gray)
		}
		gray.ConvertTo(&gray, gocv.MatTypeCV16UC1)
		gocv.Add(gray, masterMat, &masterMat)
	}
	masterMat.DivideUChar(uint8(len(frames)))

	out := gocv.NewMat()
	masterMat.ConvertTo(&out, gocv.MatTypeCV8UC1)
	return out, nil
}

// Run queues one job per interval until ctx is done. Frames that arrive
// while the queue is full are dropped.
func (c *Camera) Run(ctx context.Context, jobs chan<- Job, interval time.Duration) {
	INFOLogger.Printf("Sampling camera %s every %v", c.device, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mat, err := c.Sample()
		if err != nil {
			errorf("%v", err)
			mat.Close()
			continue
		}
		img, err := bitmapFromMat(mat, c.cfg)
		mat.Close()
		if err != nil {
			errorf("camera %s: %v", c.device, err)
			continue
		}
		select {
		case jobs <- NewJob("camera:"+c.device, img):
		default:
			debugf("job queue full, camera frame dropped")
		}
	}
}

func (c *Camera) Close() error {
	return c.vc.Close()
}
