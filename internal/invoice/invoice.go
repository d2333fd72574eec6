// Package invoice renders booking invoices as PDF.
package invoice

import (
	"fmt"
	"io"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/go-pdf/fpdf"
)

type Customer struct {
	Name  string
	Email string
}

type Data struct {
	Number    string
	IssuedAt  time.Time
	Customer  Customer
	BookingID int64
	Status    domain.BookingStatus
	Flights   []domain.FlightBooking
	Hotels    []domain.HotelBooking
}

// TotalCents sums every row that is not cancelled.
func (d Data) TotalCents() int64 {
	return domain.Itinerary{Flights: d.Flights, Hotels: d.Hotels}.TotalCents()
}

const (
	lineHeight = 7.0
	pageWidth  = 190.0
)

var (
	flightCols = []float64{38, 34, 40, 40, 20, 18}
	hotelCols  = []float64{50, 30, 26, 26, 14, 22, 22}
)

func Render(w io.Writer, data Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Invoice "+data.Number), false)
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageWidth, 10, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pageWidth, 6, tr("Invoice number: "+data.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(pageWidth, 6, "Issued: "+data.IssuedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(pageWidth, 6, fmt.Sprintf("Booking #%d (%s)", data.BookingID, data.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 7, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pageWidth, 6, tr(data.Customer.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(pageWidth, 6, tr(data.Customer.Email), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	section(pdf, "Flights")
	header(pdf, flightCols, []string{"Flight", "Airline", "From", "To", "Status", "Price"})
	if len(data.Flights) == 0 {
		empty(pdf)
	}
	for _, f := range data.Flights {
		row(pdf, tr, flightCols, []string{
			f.FlightNumber,
			f.Airline,
			f.Origin + " " + f.DepartureTime.Format("01-02 15:04"),
			f.Destination + " " + f.ArrivalTime.Format("01-02 15:04"),
			string(f.Status),
			Money(f.PriceCents),
		})
	}
	pdf.Ln(6)

	section(pdf, "Hotels")
	header(pdf, hotelCols, []string{"Hotel", "Room", "Check-in", "Check-out", "Nights", "Per night", "Amount"})
	if len(data.Hotels) == 0 {
		empty(pdf)
	}
	for _, h := range data.Hotels {
		amount := Money(h.TotalCents())
		if h.Status == domain.HotelStatusCancelled {
			amount = "cancelled"
		}
		row(pdf, tr, hotelCols, []string{
			h.HotelName,
			h.RoomType,
			h.CheckIn.Format("2006-01-02"),
			h.CheckOut.Format("2006-01-02"),
			fmt.Sprintf("%d", h.Nights()),
			Money(h.PricePerNightCents),
			amount,
		})
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth-40, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, Money(data.TotalCents()), "T", 1, "R", false, 0, "")

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 8, title, "", 1, "L", false, 0, "")
}

func header(pdf *fpdf.Fpdf, widths []float64, titles []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range titles {
		pdf.CellFormat(widths[i], lineHeight, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func row(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cells []string) {
	for i, cell := range cells {
		align := "L"
		if i == len(cells)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], lineHeight, tr(cell), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func empty(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(pageWidth, lineHeight, "No items", "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}

// Money formats cents as a dollar amount.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
