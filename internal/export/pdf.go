package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // decoders for embedded activity images
	_ "image/png"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"
)

const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	imageWidth   = 60.0
	qrSize       = 40.0
)

// PDF renders the plan as an A4 document: the itinerary with any activity
// images, the weather, hotels, packing list, safety tips and a QR code
// linking to the video guide.
func PDF(d Document) ([]byte, error) {
	if d.Plan == nil {
		return nil, fmt.Errorf("rendering pdf: no plan")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(contentWidth, 12, tr("Your Trip to "+d.Preferences.Destination), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(contentWidth, 8, fmt.Sprintf("%d Days of Adventure", len(d.Plan.Itinerary)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading(pdf, tr, "Daily Itinerary")
	for i, day := range d.Plan.Itinerary {
		pdf.SetFont("Arial", "B", 15)
		pdf.MultiCell(contentWidth, 7, tr(fmt.Sprintf("Day %d: %s", day.Day, day.Title)), "", "L", false)
		if label := d.DayLabel(i); label != "" {
			pdf.SetFont("Arial", "I", 10)
			pdf.CellFormat(contentWidth, 6, label, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)

		for j, a := range day.Activities {
			if name, ok := registerImage(pdf, fmt.Sprintf("act-%d-%d", i, j), a.ImageURL); ok {
				pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), imageWidth, 0, true, gofpdf.ImageOptions{}, 0, "")
				pdf.Ln(2)
			}
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(contentWidth, 6, tr(a.Time+": "+a.Description), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(contentWidth, 5, tr("Transport: "+a.Transport), "", "L", false)
			pdf.MultiCell(contentWidth, 5, tr("Cost: "+d.price(a.EstimatedCost)), "", "L", false)
			pdf.MultiCell(contentWidth, 5, tr("Location: "+a.Location), "", "L", false)
			pdf.Ln(3)
		}
		pdf.Ln(2)
	}

	if len(d.Plan.WeatherForecast) > 0 {
		heading(pdf, tr, "Weather Forecast")
		pdf.SetFont("Arial", "", 10)
		for _, w := range d.Plan.WeatherForecast {
			line := fmt.Sprintf("Day %d: %.0f° / %.0f°C, %s", w.Day, w.TempHigh, w.TempLow, w.Forecast)
			pdf.MultiCell(contentWidth, 5, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}

	if d.Plan.BestTimeToVisit != "" {
		heading(pdf, tr, "Best Time to Visit")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(contentWidth, 5, tr(d.Plan.BestTimeToVisit), "", "L", false)
		pdf.Ln(4)
	}

	if len(d.Plan.HotelSuggestions) > 0 {
		heading(pdf, tr, "Hotel Suggestions")
		for _, h := range d.Plan.HotelSuggestions {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(contentWidth, 5, tr(fmt.Sprintf("Day %d: %s", h.Day, h.Name)), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(contentWidth, 5, tr(d.price(h.PriceRange)), "", "L", false)
		}
		pdf.Ln(4)
	}

	if len(d.Plan.PackingList) > 0 {
		heading(pdf, tr, "Packing List")
		pdf.SetFont("Arial", "", 10)
		for _, p := range d.Plan.PackingList {
			pdf.MultiCell(contentWidth, 5, tr("• "+p.Item+": "+p.Description), "", "L", false)
		}
		pdf.Ln(4)
	}

	tips := d.Plan.SafetyTips
	if all := lo.Flatten([][]string{tips.CulturalEtiquette, tips.ScamsToAvoid, tips.GeneralAdvice}); len(all) > 0 {
		heading(pdf, tr, "Safety Tips")
		pdf.SetFont("Arial", "", 10)
		for _, tip := range all {
			pdf.MultiCell(contentWidth, 5, tr("• "+tip), "", "L", false)
		}
		pdf.Ln(4)
	}

	if d.Plan.YoutubeSearchURL != "" {
		qr, err := qrcode.Encode(d.Plan.YoutubeSearchURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encoding video guide qr code: %w", err)
		}
		heading(pdf, tr, "Video Guide")
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
		pdf.ImageOptions("qr", pdf.GetX(), pdf.GetY(), qrSize, qrSize, true, opts, 0, d.Plan.YoutubeSearchURL)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(contentWidth, 5, "Scan to watch travel videos about "+tr(d.Preferences.Destination), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Arial", "B", 17)
	pdf.CellFormat(contentWidth, 9, tr(text), "B", 1, "L", false, 0, "")
	pdf.Ln(3)
}

// registerImage embeds a base64 data URL image. Anything gofpdf could not
// read is skipped so one bad payload never fails the document.
func registerImage(pdf *gofpdf.Fpdf, name, url string) (string, bool) {
	header, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", false
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	default:
		return "", false
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(raw))
	return name, pdf.Ok()
}
