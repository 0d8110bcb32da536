package store

// schema creates the six tables and their indexes. Every statement is
// guarded by IF NOT EXISTS, so re-opening an existing file is a no-op.
// Foreign keys cascade from parents down to junction rows only; deletes
// never cascade across unrelated tables. Timestamps are stored as
// fixed-width UTC text (see service layer), dates as YYYY-MM-DD text.
const schema = `
CREATE TABLE IF NOT EXISTS persons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    handle TEXT,
    company TEXT,
    position TEXT,
    description TEXT,
    product_name TEXT,
    memo TEXT,
    github_id TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    date TEXT,
    location TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS relations (
    id TEXT PRIMARY KEY,
    source_person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    target_person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    relation_type TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (source_person_id, target_person_id, relation_type)
);

CREATE TABLE IF NOT EXISTS persons_tags (
    person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (person_id, tag_id)
);

CREATE TABLE IF NOT EXISTS persons_events (
    person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    PRIMARY KEY (person_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_persons_created_at ON persons(created_at);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
CREATE INDEX IF NOT EXISTS idx_persons_tags_tag ON persons_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_persons_events_event ON persons_events(event_id);
CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_person_id);
`
