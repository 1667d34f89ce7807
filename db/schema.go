// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for requests, suppliers, quotes and orders
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL CHECK(source IN ('web', 'email', 'whatsapp', 'chat', 'file', 'api')),
	client_id TEXT NOT NULL,
	status TEXT NOT NULL,
	stage TEXT NOT NULL,
	raw_content TEXT NOT NULL,
	normalized_content TEXT,
	category TEXT,
	urgency TEXT NOT NULL DEFAULT 'normal' CHECK(urgency IN ('low', 'normal', 'high', 'urgent')),
	seq INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_client_id ON requests(client_id);
CREATE INDEX IF NOT EXISTS idx_requests_stage ON requests(stage);

CREATE TABLE IF NOT EXISTS request_specs (
	request_id TEXT PRIMARY KEY,
	fields TEXT,
	completeness REAL NOT NULL DEFAULT 0,
	missing_fields TEXT,
	is_valid INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (request_id) REFERENCES requests(id)
);

CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	categories TEXT NOT NULL DEFAULT '[]',
	active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers(name);

CREATE TABLE IF NOT EXISTS rfqs (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	batch_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('sent', 'responded', 'expired')),
	sent_at DATETIME NOT NULL,
	FOREIGN KEY (request_id) REFERENCES requests(id),
	FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
);

CREATE INDEX IF NOT EXISTS idx_rfqs_request_id ON rfqs(request_id);

CREATE TABLE IF NOT EXISTS quotes (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	items TEXT NOT NULL,
	subtotal INTEGER NOT NULL,
	taxes INTEGER NOT NULL DEFAULT 0,
	shipping INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL,
	currency TEXT NOT NULL,
	valid_until DATETIME,
	delivery_days INTEGER NOT NULL DEFAULT 0,
	terms TEXT,
	superseded_by TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (request_id) REFERENCES requests(id),
	FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
);

CREATE INDEX IF NOT EXISTS idx_quotes_request_id ON quotes(request_id);

CREATE TABLE IF NOT EXISTS purchase_orders (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL UNIQUE,
	quote_id TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	client_id TEXT NOT NULL,
	status TEXT NOT NULL,
	total INTEGER NOT NULL,
	currency TEXT NOT NULL,
	payment_status TEXT NOT NULL DEFAULT 'pending' CHECK(payment_status IN ('pending', 'partial', 'paid', 'refunded', 'failed')),
	expected_delivery DATETIME,
	delivered_at DATETIME,
	estimated_completion DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (request_id) REFERENCES requests(id),
	FOREIGN KEY (quote_id) REFERENCES quotes(id)
);

CREATE INDEX IF NOT EXISTS idx_purchase_orders_client_id ON purchase_orders(client_id);
CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders(status);

CREATE TABLE IF NOT EXISTS po_timeline_events (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	status TEXT NOT NULL,
	description TEXT,
	metadata TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (order_id) REFERENCES purchase_orders(id)
);

CREATE INDEX IF NOT EXISTS idx_po_timeline_order_id ON po_timeline_events(order_id);

CREATE TABLE IF NOT EXISTS intake_log (
	source TEXT NOT NULL,
	source_id TEXT NOT NULL,
	request_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL,
	PRIMARY KEY (source, source_id)
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
