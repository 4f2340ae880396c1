package helpers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"text/template"

	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	qrcode "github.com/skip2/go-qrcode"
)

type RequestPdf struct {
	bodies []string
}

func (r *RequestPdf) ParseTemplate(templateFileName string, data interface{}) error {
	t, err := template.ParseFiles(templateFileName)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err = t.Execute(buf, data); err != nil {
		return err
	}
	r.bodies = append(r.bodies, buf.String())
	return nil
}

const (
	ConstHTMLNewPage = `
	<div class="new-page"></div>
	`
)

func (r *RequestPdf) GeneratePDF() (*bytes.Buffer, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, err
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(strings.Join(r.bodies, ConstHTMLNewPage)))))

	err = pdfg.Create()
	if err != nil {
		return nil, err
	}

	return pdfg.Buffer(), nil
}

// GenerateTicketPDF renders the entry ticket for a completed event payment.
// The QR code carries the payment reference checked at the venue door.
func GenerateTicketPDF(payment *models.Payment, event *models.Event, buyer *models.User) (*bytes.Buffer, error) {
	r := RequestPdf{}

	img, err := qrcode.New(payment.Reference, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeImage(img.Image(256))
	if err != nil {
		return nil, err
	}

	if err := r.ParseTemplate("./templates/pdf/ticket.html", models.TicketPDFHTML{
		PaymentID: payment.ID,
		Firstname: RemoveAccents(buyer.Firstname),
		Lastname:  buyer.Lastname,
		Title:     event.Title,
		Date:      event.StartDateTime.Format("02-01-2006"),
		Venue:     event.Venue,
		Amount:    payment.Amount,
		Image:     encoded,
		Reference: payment.Reference,
	}); err != nil {
		return nil, err
	}

	mem, err := r.GeneratePDF()
	if err != nil {
		return nil, err
	}

	return mem, nil
}

func EncodeImage(m image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
