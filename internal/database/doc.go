// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

/*
Package database provides the DuckDB warehouse used by the silver and gold
layers, together with a Parquet codec used by the bronze layer.

Schemas:
  - silver: cleaned MovieLens entities (movies, genres, ratings, tags, links)
  - silver_tmdb: cleaned TMDB movies and their exploded bridge tables
  - gold: MovieLens star schema (dimensions and facts)
  - gold_tmdb: TMDB financial star schema
  - schema_migrations: versioned DDL tracking

Loading:
Every silver and gold table is refreshed with TruncateAndLoad, which deletes
the table's declared dependents and the table itself and then inserts rows in
parameterized multi-row batches, all inside one transaction. A failed batch
rolls the whole table back, so a table is either fully replaced or untouched.

DuckDB does not implement ON DELETE CASCADE, so tables carry no foreign key
constraints; cascading deletes are performed by the loader from each Table's
Dependents list and orphan keys are reported by the quality validators.

Parquet:
ParquetCodec writes rows to a Parquet file through a temporary DuckDB table
and COPY ... (FORMAT PARQUET), and reads them back with read_parquet.
*/
package database
