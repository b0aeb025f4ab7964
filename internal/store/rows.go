package store

import (
	"strconv"

	"cafe-pos-backend/internal/models"
)

// Record maps a row to its header names. Missing cells read as "".
type Record map[string]string

func NewRecord(header, row []string) Record {
	r := make(Record, len(header))
	for i, h := range header {
		if i < len(row) {
			r[h] = row[i]
		} else {
			r[h] = ""
		}
	}
	return r
}

// Row lays the record out in the given column order.
func (r Record) Row(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

func ProductRecord(p models.Product) Record {
	kind := p.ProductType
	if kind == "" {
		kind = models.ProductDrink
	}
	return Record{
		"id":               p.ID,
		"name":             p.Name,
		"category":         p.Category,
		"productType":      string(kind),
		"prices":           models.EncodePrices(p.Prices),
		"description":      p.Description,
		"image":            p.Image.URL,
		"additionalImages": models.EncodeImages(p.AdditionalImages),
		"video":            p.Video,
		"isPopular":        models.FormatFlag(p.IsPopular),
		"isRecommended":    models.FormatFlag(p.IsRecommended),
	}
}

func (r Record) Product() models.Product {
	return models.Product{
		ID:               r["id"],
		Name:             r["name"],
		Category:         r["category"],
		ProductType:      models.ProductType(r["productType"]),
		Prices:           models.DecodePrices(r["prices"]),
		Description:      r["description"],
		Image:            models.Ref(r["image"]),
		AdditionalImages: models.DecodeImages(r["additionalImages"]),
		Video:            r["video"],
		IsPopular:        models.ParseFlag(r["isPopular"]),
		IsRecommended:    models.ParseFlag(r["isRecommended"]),
	}
}

func CategoryRecord(c models.Category) Record {
	return Record{"id": c.ID, "name": c.Name}
}

func (r Record) Category() models.Category {
	return models.Category{ID: r["id"], Name: r["name"]}
}

func OrderRecord(o models.Order) Record {
	return Record{
		"id":               o.ID,
		"customerName":     o.CustomerName,
		"userType":         string(o.UserType),
		"items":            models.EncodeItems(o.Items),
		"totalAmount":      models.FormatAmount(o.TotalAmount),
		"paymentMethod":    string(o.PaymentMethod),
		"deliveryLocation": o.DeliveryLocation,
		"status":           string(o.Status),
		"slipUrl":          o.SlipURL,
		"timestamp":        strconv.FormatInt(o.Timestamp, 10),
		"paymentStatus":    string(o.PaymentStatus),
	}
}

func (r Record) Order() models.Order {
	o := models.Order{
		ID:               r["id"],
		CustomerName:     r["customerName"],
		UserType:         models.CustomerClass(r["userType"]),
		Items:            models.DecodeItems(r["items"]),
		TotalAmount:      models.ParseAmount(r["totalAmount"]),
		PaymentMethod:    models.PaymentMethod(r["paymentMethod"]),
		DeliveryLocation: r["deliveryLocation"],
		Status:           models.OrderStatus(r["status"]),
		SlipURL:          r["slipUrl"],
		Timestamp:        models.ParseTimestamp(r["timestamp"]),
		PaymentStatus:    models.PaymentStatus(r["paymentStatus"]),
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentPending
	}
	return o
}
