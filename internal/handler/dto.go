package handler

import (
	"github.com/shopspring/decimal"

	"github.com/yourorg/tastebook/internal/domain"
)

type catalogRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=150"`
	IsActive *bool   `json:"is_active"`
}

func (r catalogRequest) input() domain.CatalogInput {
	return domain.CatalogInput{Name: r.Name, IsActive: r.IsActive}
}

type placeRequest struct {
	Name        *string          `json:"name"`
	PlaceType   *string          `json:"place_type"`
	Area        Nullable[string] `json:"area"`
	PriceRange  *string          `json:"price_range"`
	Description *string          `json:"description"`
	URL         *string          `json:"url" validate:"omitempty,url,max=500"`
}

func (r placeRequest) input() domain.PlaceInput {
	return domain.PlaceInput{
		Name:        r.Name,
		PlaceTypeID: r.PlaceType,
		AreaID:      r.Area.Ptr(),
		ClearArea:   r.Area.Set && r.Area.Null,
		PriceRange:  r.PriceRange,
		Description: r.Description,
		URL:         r.URL,
	}
}

type placeTagsRequest struct {
	Tags []string `json:"tags" validate:"required"`
}

type visitRequest struct {
	Place          *string                   `json:"place"`
	Date           *string                   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Rating         *decimal.Decimal          `json:"rating"`
	PricePerPerson Nullable[decimal.Decimal] `json:"price_per_person"`
	Comment        *string                   `json:"comment"`
}

func (r visitRequest) input() (domain.VisitInput, error) {
	in := domain.VisitInput{
		PlaceID:        r.Place,
		Rating:         r.Rating,
		PricePerPerson: r.PricePerPerson.Ptr(),
		ClearPrice:     r.PricePerPerson.Set && r.PricePerPerson.Null,
		Comment:        r.Comment,
	}
	if r.Date != nil {
		date, err := parseDate("date", *r.Date)
		if err != nil {
			return in, err
		}
		in.Date = date
	}
	return in, nil
}

type compositeVisitRequest struct {
	Place          string                 `json:"place" validate:"required"`
	Date           string                 `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Rating         *decimal.Decimal       `json:"rating"`
	PricePerPerson *decimal.Decimal       `json:"price_per_person"`
	Comment        string                 `json:"comment"`
	Foods          []compositeFoodRequest `json:"foods" validate:"dive"`
}

type compositeFoodRequest struct {
	Food      string           `json:"food"`
	Name      string           `json:"name" validate:"max=120"`
	Rating    *decimal.Decimal `json:"rating"`
	PricePaid *decimal.Decimal `json:"price_paid"`
	Comment   string           `json:"comment"`
}

func (r compositeVisitRequest) input() (domain.CompositeVisitInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return domain.CompositeVisitInput{}, err
	}
	in := domain.CompositeVisitInput{
		PlaceID:        r.Place,
		Date:           date,
		Rating:         r.Rating,
		PricePerPerson: r.PricePerPerson,
		Comment:        r.Comment,
		Foods:          make([]domain.CompositeFoodItem, 0, len(r.Foods)),
	}
	for _, f := range r.Foods {
		in.Foods = append(in.Foods, domain.CompositeFoodItem{
			FoodID:    f.Food,
			Name:      f.Name,
			Rating:    f.Rating,
			PricePaid: f.PricePaid,
			Comment:   f.Comment,
		})
	}
	return in, nil
}

type visitFoodRequest struct {
	Visit     *string                   `json:"visit"`
	Food      *string                   `json:"food"`
	Rating    *decimal.Decimal          `json:"rating"`
	PricePaid Nullable[decimal.Decimal] `json:"price_paid"`
	Comment   *string                   `json:"comment"`
}

func (r visitFoodRequest) input() domain.VisitFoodInput {
	return domain.VisitFoodInput{
		VisitID:    r.Visit,
		FoodID:     r.Food,
		Rating:     r.Rating,
		PricePaid:  r.PricePaid.Ptr(),
		ClearPrice: r.PricePaid.Set && r.PricePaid.Null,
		Comment:    r.Comment,
	}
}
