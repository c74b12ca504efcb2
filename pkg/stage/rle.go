package stage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// BMP の圧縮方式
// 非圧縮 BMP は golang.org/x/image/bmp に任せ、RLE だけをここでデコードする
const (
	bmpRLE8 = 1
	bmpRLE4 = 2
)

const bmpHeaderSize = 14 + 40

type bmpHeader struct {
	Signature   [2]byte
	FileSize    uint32
	Reserved    uint32
	DataOffset  uint32
	InfoSize    uint32
	Width       int32
	Height      int32
	Planes      uint16
	BitCount    uint16
	Compression uint32
	ImageSize   uint32
	XPerMeter   int32
	YPerMeter   int32
	ColorsUsed  uint32
	ColorsImp   uint32
}

// isRLEBitmap は data が RLE 圧縮された BMP かどうかを返す
func isRLEBitmap(data []byte) bool {
	if len(data) < bmpHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return false
	}
	c := binary.LittleEndian.Uint32(data[30:34])
	return c == bmpRLE8 || c == bmpRLE4
}

// decodeRLEBitmap は RLE8/RLE4 圧縮された BMP をデコードする
func decodeRLEBitmap(data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	var h bmpHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read BMP header: %w", err)
	}
	switch {
	case h.Compression == bmpRLE8 && h.BitCount == 8:
	case h.Compression == bmpRLE4 && h.BitCount == 4:
	default:
		return nil, fmt.Errorf("unsupported BMP compression %d with %d bits", h.Compression, h.BitCount)
	}

	width, height := int(h.Width), int(h.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}
	if width <= 0 || height == 0 {
		return nil, fmt.Errorf("invalid BMP size %dx%d", width, height)
	}

	// パレットは情報ヘッダーの直後に BGRA で並ぶ
	n := int(h.ColorsUsed)
	if n == 0 {
		n = 1 << h.BitCount
	}
	if _, err := r.Seek(int64(14+h.InfoSize), io.SeekStart); err != nil {
		return nil, err
	}
	palette := make(color.Palette, n)
	for i := range palette {
		var e [4]byte
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return nil, fmt.Errorf("failed to read palette entry %d: %w", i, err)
		}
		palette[i] = color.RGBA{R: e[2], G: e[1], B: e[0], A: 255}
	}

	if _, err := r.Seek(int64(h.DataOffset), io.SeekStart); err != nil {
		return nil, err
	}
	d := &rleDecoder{
		r:       r,
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		palette: palette,
		topDown: topDown,
		nibbles: h.Compression == bmpRLE4,
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.img, nil
}

type rleDecoder struct {
	r       io.Reader
	img     *image.RGBA
	palette color.Palette
	topDown bool
	nibbles bool
	x, y    int
}

func (d *rleDecoder) set(idx uint8) {
	b := d.img.Bounds()
	if d.x < b.Dx() && d.y < b.Dy() && int(idx) < len(d.palette) {
		py := d.y
		if !d.topDown {
			py = b.Dy() - 1 - d.y
		}
		d.img.Set(d.x, py, d.palette[idx])
	}
	d.x++
}

// pixel は i 番目のピクセルのパレット番号を返す
// RLE4 では 1 バイトに上位、下位の順で 2 ピクセルが入る
func (d *rleDecoder) pixel(data []byte, i int) uint8 {
	if !d.nibbles {
		return data[i]
	}
	if i%2 == 0 {
		return data[i/2] >> 4
	}
	return data[i/2] & 0x0F
}

func (d *rleDecoder) run() error {
	for {
		var pair [2]byte
		if _, err := io.ReadFull(d.r, pair[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read RLE data: %w", err)
		}
		count, value := int(pair[0]), pair[1]

		if count > 0 {
			run := []byte{value}
			for i := 0; i < count; i++ {
				if d.nibbles {
					d.set(d.pixel(run, i%2))
				} else {
					d.set(value)
				}
			}
			continue
		}

		switch value {
		case 0: // 行末
			d.x = 0
			d.y++
		case 1: // ビットマップ終了
			return nil
		case 2: // 位置移動
			var delta [2]byte
			if _, err := io.ReadFull(d.r, delta[:]); err != nil {
				return fmt.Errorf("failed to read RLE delta: %w", err)
			}
			d.x += int(delta[0])
			d.y += int(delta[1])
		default: // 絶対モード
			n := int(value)
			size := n
			if d.nibbles {
				size = (n + 1) / 2
			}
			// 2 バイト境界までパディングされる
			data := make([]byte, size+size%2)
			if _, err := io.ReadFull(d.r, data); err != nil {
				return fmt.Errorf("failed to read RLE absolute run: %w", err)
			}
			for i := 0; i < n; i++ {
				d.set(d.pixel(data, i))
			}
		}
	}
}
