package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// JpegConverterCommand normalises uploads into upright JPEG bytes.
// SVG input is rasterised onto a white canvas first.
type JpegConverterCommand struct {
	name              string
	quality           int
	svgFallbackWidth  int
	svgFallbackHeight int
}

func NewJpegConverterCommand(params map[string]any) (commandstructure.Command, error) {
	quality, err := qualityParam(params)
	if err != nil {
		return nil, err
	}
	w := commandstructure.GetIntParam(params, "svgFallbackWidth", 0)
	h := commandstructure.GetIntParam(params, "svgFallbackHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("svg fallback size must not be negative, got %dx%d", w, h)
	}

	return &JpegConverterCommand{
		name:              "JpegConverterCommand",
		quality:           quality,
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
	}, nil
}

// NewJpegConverterCommandWithQuality builds a converter without SVG fallback size.
func NewJpegConverterCommandWithQuality(quality int) (*JpegConverterCommand, error) {
	command, err := NewJpegConverterCommand(map[string]any{"quality": quality})
	if err != nil {
		return nil, err
	}
	return command.(*JpegConverterCommand), nil
}

func (c *JpegConverterCommand) Name() string {
	return c.name
}

func (c *JpegConverterCommand) Quality() int {
	return c.quality
}

func (c *JpegConverterCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("JpegConverterCommand: start",
		"input_size_bytes", len(imageData),
		"quality", c.quality)

	var img image.Image
	if isSVGData(imageData) {
		rendered, err := c.rasterizeSVG(imageData)
		if err != nil {
			slog.Error("JpegConverterCommand: failed to render SVG", "error", err)
			return nil, err
		}
		img = rendered
	} else {
		decoded, format, err := decodeImage(imageData)
		if err != nil {
			slog.Error("JpegConverterCommand: failed to decode image", "error", err)
			return nil, err
		}
		slog.Debug("JpegConverterCommand: decoded raster image",
			"current_format", format,
			"width", decoded.Bounds().Dx(),
			"height", decoded.Bounds().Dy())
		img = flattenOnWhite(decoded)
	}

	out, err := encodeJPEG(img, c.quality)
	if err != nil {
		slog.Error("JpegConverterCommand: failed to encode image", "error", err)
		return nil, err
	}
	slog.Debug("JpegConverterCommand: conversion complete", "output_size_bytes", len(out))
	return out, nil
}

func (c *JpegConverterCommand) rasterizeSVG(data []byte) (image.Image, error) {
	w, h, ok := svgExplicitSize(data)
	if !ok {
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("SVG has no explicit size and no fallback size is configured")
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return canvas, nil
}

// flattenOnWhite composites translucent pixels over white; JPEG has no alpha.
func flattenOnWhite(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

var (
	svgTagPattern    = regexp.MustCompile(`(?is)<svg\b[^>]*>`)
	svgWidthPattern  = regexp.MustCompile(`(?i)\swidth\s*=\s*["']\s*(\d+)`)
	svgHeightPattern = regexp.MustCompile(`(?i)\sheight\s*=\s*["']\s*(\d+)`)
)

// svgExplicitSize reads the integer part of width and height on the root
// element. viewBox is not treated as a pixel size.
func svgExplicitSize(data []byte) (int, int, bool) {
	tag := svgTagPattern.Find(data)
	if tag == nil {
		return 0, 0, false
	}
	w, wOk := leadingInt(svgWidthPattern, tag)
	h, hOk := leadingInt(svgHeightPattern, tag)
	if !wOk || !hOk {
		return 0, 0, false
	}
	return w, h, true
}

func leadingInt(pattern *regexp.Regexp, tag []byte) (int, bool) {
	m := pattern.FindSubmatch(tag)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(string(m[1]))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func isSVGData(data []byte) bool {
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	return bytes.Contains(bytes.ToLower(data[:n]), []byte("<svg"))
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("JpegConverterCommand", NewJpegConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register JpegConverterCommand: %v", err))
	}
}
