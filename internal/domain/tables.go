package domain

var Tables = []interface{}{
	&User{},
	&Product{},
	&Equipment{},
	&Cart{},
	&CartItem{},
	&Order{},
	&OrderItem{},
	&WishlistItem{},
}
