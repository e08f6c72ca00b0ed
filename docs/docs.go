// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://github.com/Pesokrava/storefront",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/cart": {
            "get": {"tags": ["Cart"], "summary": "Get the caller's cart", "responses": {"200": {"description": "Cart with derived total"}}},
            "post": {"tags": ["Cart"], "summary": "Add a product to the cart", "responses": {"200": {"description": "Updated cart"}, "400": {"description": "Invalid input or insufficient stock"}}},
            "delete": {"tags": ["Cart"], "summary": "Empty the cart", "responses": {"204": {"description": "Cart cleared"}}}
        },
        "/cart/{itemId}": {
            "put": {"tags": ["Cart"], "summary": "Change the quantity of a cart line", "responses": {"200": {"description": "Updated cart"}}},
            "delete": {"tags": ["Cart"], "summary": "Remove a cart line", "responses": {"200": {"description": "Updated cart"}}}
        },
        "/orders": {
            "get": {"tags": ["Orders"], "summary": "List the caller's orders", "responses": {"200": {"description": "Orders, newest first"}}},
            "post": {"tags": ["Orders"], "summary": "Place an order", "responses": {"201": {"description": "Order created"}, "400": {"description": "Invalid input or insufficient stock"}}}
        },
        "/orders/{orderId}": {
            "get": {"tags": ["Orders"], "summary": "Get an order", "responses": {"200": {"description": "Order"}, "403": {"description": "Not the owner"}}}
        },
        "/orders/{orderId}/pay": {
            "put": {"tags": ["Orders"], "summary": "Record payment for an order", "responses": {"200": {"description": "Paid order"}}}
        },
        "/orders/{orderId}/cancel": {
            "put": {"tags": ["Orders"], "summary": "Cancel an order", "responses": {"200": {"description": "Cancelled order"}, "400": {"description": "Order already delivered or cancelled"}}}
        },
        "/orders/admin/all": {
            "get": {"tags": ["Orders"], "summary": "List all orders", "responses": {"200": {"description": "Paginated list of orders"}}}
        },
        "/orders/admin/{orderId}": {
            "put": {"tags": ["Orders"], "summary": "Move an order to a new status", "responses": {"200": {"description": "Updated order"}, "409": {"description": "Concurrent status change"}}},
            "delete": {"tags": ["Orders"], "summary": "Delete an order record", "responses": {"204": {"description": "Order deleted"}}}
        },
        "/products": {
            "get": {"tags": ["Products"], "summary": "List all products", "responses": {"200": {"description": "Paginated list of products"}}},
            "post": {"tags": ["Products"], "summary": "Create a new product", "responses": {"201": {"description": "Product created successfully"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["Products"], "summary": "Get a product by ID", "responses": {"200": {"description": "Product details"}, "404": {"description": "Product not found"}}},
            "put": {"tags": ["Products"], "summary": "Update a product", "responses": {"200": {"description": "Product updated successfully"}, "409": {"description": "Conflict - product was modified"}}},
            "delete": {"tags": ["Products"], "summary": "Delete a product", "responses": {"204": {"description": "Product deleted successfully"}}}
        },
        "/products/{id}/restock": {
            "post": {"tags": ["Products"], "summary": "Credit inventory to a product", "responses": {"200": {"description": "Product with updated quantity"}}}
        },
        "/products/{id}/reviews": {
            "get": {"tags": ["Reviews"], "summary": "Get reviews for a product", "responses": {"200": {"description": "Paginated list of reviews"}}},
            "post": {"tags": ["Reviews"], "summary": "Review a product", "responses": {"201": {"description": "Review created successfully"}}}
        },
        "/reviews": {
            "get": {"tags": ["Reviews"], "summary": "List reviews for moderation", "responses": {"200": {"description": "Paginated list of reviews"}}}
        },
        "/reviews/{reviewId}": {
            "put": {"tags": ["Reviews"], "summary": "Edit a review", "responses": {"200": {"description": "Review updated successfully"}}},
            "delete": {"tags": ["Reviews"], "summary": "Delete a review", "responses": {"204": {"description": "Review deleted successfully"}}}
        },
        "/reviews/{reviewId}/moderate": {
            "put": {"tags": ["Reviews"], "summary": "Approve or reject a review", "responses": {"200": {"description": "Moderated review"}}}
        },
        "/wishlist": {
            "get": {"tags": ["Wishlist"], "summary": "Get the caller's wishlist", "responses": {"200": {"description": "Saved products"}}},
            "post": {"tags": ["Wishlist"], "summary": "Save a product to the wishlist", "responses": {"204": {"description": "Product saved"}}}
        },
        "/wishlist/{productId}": {
            "delete": {"tags": ["Wishlist"], "summary": "Remove a product from the wishlist", "responses": {"204": {"description": "Product removed"}}}
        },
        "/users": {
            "post": {"tags": ["Users"], "summary": "Register the caller's profile", "responses": {"201": {"description": "User registered"}}}
        },
        "/users/me": {
            "get": {"tags": ["Users"], "summary": "Get the caller's profile and lead score", "responses": {"200": {"description": "User profile"}}}
        },
        "/users/me/events": {
            "post": {"tags": ["Users"], "summary": "Report a client-observed lead event", "responses": {"202": {"description": "Event accepted"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Storefront API",
	Description:      "Inventory-consistent cart and order fulfillment with lead scoring and review-driven ratings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
