package report

// Coverage dice cuánto del período se pudo mirar. MissingDetails son pedidos
// que cuentan en los totales pero no en las dimensiones que requieren detalle.
type Coverage struct {
	Pages           int    `json:"pages"`
	Partial         bool   `json:"partial"`
	OrdersListed    int    `json:"orders_listed"`
	DetailsResolved int    `json:"details_resolved"`
	MissingDetails  int    `json:"missing_details"`
	Policy          string `json:"policy,omitempty"`
}
